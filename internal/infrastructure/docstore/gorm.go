package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mahallubank/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// documentRecord is the single table the GORM store persists documents in
type documentRecord struct {
	Collection string    `gorm:"column:collection;primaryKey;size:64"`
	DocID      string    `gorm:"column:doc_id;primaryKey;size:64"`
	Payload    string    `gorm:"column:payload;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (documentRecord) TableName() string {
	return "documents"
}

// GormStore persists documents in a SQLite database through GORM. Change
// notifications are in-process: subscribers of a collection are invoked
// with the full current list after every committed mutation.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger

	subMu sync.RWMutex
	subs  map[string][]*gormSubscription
}

type gormSubscription struct {
	fn func([]Document)
}

// NewGormStore opens (or creates) the SQLite database at path and migrates
// the documents table
func NewGormStore(path string, gormLog gormlogger.Interface, logger *zap.Logger) (*GormStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gormLog == nil {
		gormLog = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&documentRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}

	return &GormStore{
		db:     db,
		logger: logger.Named("docstore.gorm"),
		subs:   make(map[string][]*gormSubscription),
	}, nil
}

// Close closes the underlying database connection
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// GetAll returns every document in a collection
func (s *GormStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	return s.getAll(ctx, s.db, collection)
}

// GetOne returns a single document, or shared.ErrNotFound
func (s *GormStore) GetOne(ctx context.Context, collection, id string) (Document, error) {
	return s.getOne(ctx, s.db, collection, id)
}

// Add inserts a new document with a generated id and returns the id
func (s *GormStore) Add(ctx context.Context, collection string, fields Document) (string, error) {
	id, err := s.add(ctx, s.db, collection, fields)
	if err != nil {
		return "", err
	}
	s.notify(ctx, collection)
	return id, nil
}

// Update merges partial fields into an existing document. Missing ids are
// logged and ignored.
func (s *GormStore) Update(ctx context.Context, collection, id string, fields Document) error {
	if err := s.update(ctx, s.db, collection, id, fields); err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

// Set upserts a document under a caller-supplied id
func (s *GormStore) Set(ctx context.Context, collection, id string, fields Document) error {
	if err := s.set(ctx, s.db, collection, id, fields); err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

// Delete removes a document; deleting a missing id is not an error
func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.delete(ctx, s.db, collection, id); err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

// Clear removes every document in a collection
func (s *GormStore) Clear(ctx context.Context, collection string) error {
	if err := s.clear(ctx, s.db, collection); err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

// Subscribe registers a change listener. The callback receives the current
// full document list immediately and after every committed mutation.
func (s *GormStore) Subscribe(collection string, fn func([]Document)) UnsubscribeFunc {
	sub := &gormSubscription{fn: fn}

	s.subMu.Lock()
	s.subs[collection] = append(s.subs[collection], sub)
	s.subMu.Unlock()

	docs, err := s.getAll(context.Background(), s.db, collection)
	if err != nil {
		s.logger.Error("failed to load initial subscription snapshot",
			zap.String("collection", collection),
			zap.Error(err),
		)
		docs = nil
	}
	fn(docs)

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		subs := s.subs[collection]
		for i, candidate := range subs {
			if candidate == sub {
				s.subs[collection] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Batch runs fn inside one database transaction; all steps commit or roll
// back together. Notifications for the touched collections fire once after
// the commit.
func (s *GormStore) Batch(ctx context.Context, fn func(Store) error) error {
	dirty := make(map[string]struct{})
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormBatch{store: s, tx: tx, dirty: dirty})
	})
	if err != nil {
		return err
	}
	for collection := range dirty {
		s.notify(ctx, collection)
	}
	return nil
}

func (s *GormStore) notify(ctx context.Context, collection string) {
	s.subMu.RLock()
	subs := make([]*gormSubscription, len(s.subs[collection]))
	copy(subs, s.subs[collection])
	s.subMu.RUnlock()

	if len(subs) == 0 {
		return
	}

	docs, err := s.getAll(ctx, s.db, collection)
	if err != nil {
		s.logger.Error("failed to load snapshot for change notification",
			zap.String("collection", collection),
			zap.Error(err),
		)
		return
	}
	for _, sub := range subs {
		sub.fn(docs)
	}
}

func (s *GormStore) getAll(ctx context.Context, db *gorm.DB, collection string) ([]Document, error) {
	var records []documentRecord
	if err := db.WithContext(ctx).Where("collection = ?", collection).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		doc, err := decodeRecord(rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *GormStore) getOne(ctx context.Context, db *gorm.DB, collection, id string) (Document, error) {
	var rec documentRecord
	err := db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s/%s: %w", collection, id, err)
	}
	return decodeRecord(rec)
}

func (s *GormStore) add(ctx context.Context, db *gorm.DB, collection string, fields Document) (string, error) {
	id := uuid.NewString()
	doc := cloneDocument(fields)
	doc["id"] = id
	doc["createdAt"] = Now()
	doc["updatedAt"] = Now()

	rec, err := encodeRecord(collection, id, doc)
	if err != nil {
		return "", err
	}
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}
	return id, nil
}

func (s *GormStore) update(ctx context.Context, db *gorm.DB, collection, id string, fields Document) error {
	existing, err := s.getOne(ctx, db, collection, id)
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("update of missing document ignored",
			zap.String("collection", collection),
			zap.String("id", id),
		)
		return nil
	}
	if err != nil {
		return err
	}

	for k, v := range fields {
		existing[k] = v
	}
	existing["id"] = id
	existing["updatedAt"] = Now()

	rec, err := encodeRecord(collection, id, existing)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).
		Model(&documentRecord{}).
		Where("collection = ? AND doc_id = ?", collection, id).
		Updates(map[string]any{"payload": rec.Payload, "updated_at": time.Now()}).Error
}

func (s *GormStore) set(ctx context.Context, db *gorm.DB, collection, id string, fields Document) error {
	doc := cloneDocument(fields)
	doc["id"] = id
	doc["updatedAt"] = Now()

	rec, err := encodeRecord(collection, id, doc)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *GormStore) delete(ctx context.Context, db *gorm.DB, collection, id string) error {
	return db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&documentRecord{}).Error
}

func (s *GormStore) clear(ctx context.Context, db *gorm.DB, collection string) error {
	return db.WithContext(ctx).
		Where("collection = ?", collection).
		Delete(&documentRecord{}).Error
}

func encodeRecord(collection, id string, doc Document) (documentRecord, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return documentRecord{}, fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}
	return documentRecord{
		Collection: collection,
		DocID:      id,
		Payload:    string(payload),
	}, nil
}

func decodeRecord(rec documentRecord) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(rec.Payload), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s/%s: %w", rec.Collection, rec.DocID, err)
	}
	doc["id"] = rec.DocID
	return doc, nil
}

// gormBatch is the Store handed to Batch callbacks, bound to the open
// transaction
type gormBatch struct {
	store *GormStore
	tx    *gorm.DB
	dirty map[string]struct{}
}

func (b *gormBatch) GetAll(ctx context.Context, collection string) ([]Document, error) {
	return b.store.getAll(ctx, b.tx, collection)
}

func (b *gormBatch) GetOne(ctx context.Context, collection, id string) (Document, error) {
	return b.store.getOne(ctx, b.tx, collection, id)
}

func (b *gormBatch) Add(ctx context.Context, collection string, fields Document) (string, error) {
	b.dirty[collection] = struct{}{}
	return b.store.add(ctx, b.tx, collection, fields)
}

func (b *gormBatch) Update(ctx context.Context, collection, id string, fields Document) error {
	b.dirty[collection] = struct{}{}
	return b.store.update(ctx, b.tx, collection, id, fields)
}

func (b *gormBatch) Set(ctx context.Context, collection, id string, fields Document) error {
	b.dirty[collection] = struct{}{}
	return b.store.set(ctx, b.tx, collection, id, fields)
}

func (b *gormBatch) Delete(ctx context.Context, collection, id string) error {
	b.dirty[collection] = struct{}{}
	return b.store.delete(ctx, b.tx, collection, id)
}

func (b *gormBatch) Clear(ctx context.Context, collection string) error {
	b.dirty[collection] = struct{}{}
	return b.store.clear(ctx, b.tx, collection)
}

// Subscribe inside a batch registers the listener without the initial
// snapshot call; the post-commit notification delivers the first state.
func (b *gormBatch) Subscribe(collection string, fn func([]Document)) UnsubscribeFunc {
	sub := &gormSubscription{fn: fn}
	b.store.subMu.Lock()
	b.store.subs[collection] = append(b.store.subs[collection], sub)
	b.store.subMu.Unlock()
	b.dirty[collection] = struct{}{}
	return func() {
		b.store.subMu.Lock()
		defer b.store.subMu.Unlock()
		subs := b.store.subs[collection]
		for i, candidate := range subs {
			if candidate == sub {
				b.store.subs[collection] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}
