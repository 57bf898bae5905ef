package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mahallubank/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MemoryStore is a map-backed document store. It is the standard test
// double and also serves fully offline sessions.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	subs        map[string][]*memorySubscription
	logger      *zap.Logger
}

type memorySubscription struct {
	fn func([]Document)
}

// NewMemoryStore creates an empty in-memory document store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		subs:        make(map[string][]*memorySubscription),
		logger:      logger.Named("docstore.memory"),
	}
}

// GetAll returns every document in a collection
func (s *MemoryStore) GetAll(_ context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getAllLocked(collection), nil
}

// GetOne returns a single document, or shared.ErrNotFound
func (s *MemoryStore) GetOne(_ context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneDocument(doc), nil
}

// Add inserts a new document with a generated id and returns the id
func (s *MemoryStore) Add(_ context.Context, collection string, fields Document) (string, error) {
	s.mu.Lock()
	id := s.addLocked(collection, fields)
	s.mu.Unlock()
	s.notify(collection)
	return id, nil
}

// Update merges partial fields into an existing document. Missing ids are
// logged and ignored.
func (s *MemoryStore) Update(_ context.Context, collection, id string, fields Document) error {
	s.mu.Lock()
	s.updateLocked(collection, id, fields)
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

// Set upserts a document under a caller-supplied id
func (s *MemoryStore) Set(_ context.Context, collection, id string, fields Document) error {
	s.mu.Lock()
	s.setLocked(collection, id, fields)
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

// Delete removes a document; deleting a missing id is not an error
func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	s.deleteLocked(collection, id)
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

// Clear removes every document in a collection
func (s *MemoryStore) Clear(_ context.Context, collection string) error {
	s.mu.Lock()
	delete(s.collections, collection)
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

// Subscribe registers a change listener. The callback receives the current
// full document list immediately and after every mutation.
func (s *MemoryStore) Subscribe(collection string, fn func([]Document)) UnsubscribeFunc {
	sub := &memorySubscription{fn: fn}

	s.mu.Lock()
	s.subs[collection] = append(s.subs[collection], sub)
	snapshot := s.getAllLocked(collection)
	s.mu.Unlock()

	fn(snapshot)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subs[collection]
		for i, candidate := range subs {
			if candidate == sub {
				s.subs[collection] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Batch applies a multi-step sequence under one lock, so concurrent readers
// never observe a partially applied cascade. Notifications for the touched
// collections fire once after the batch returns. The memory store does not
// roll back steps applied before a mid-batch error.
func (s *MemoryStore) Batch(_ context.Context, fn func(Store) error) error {
	b := &memoryBatch{store: s, dirty: make(map[string]struct{})}

	s.mu.Lock()
	err := fn(b)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	for collection := range b.dirty {
		s.notify(collection)
	}
	return nil
}

func (s *MemoryStore) notify(collection string) {
	s.mu.RLock()
	snapshot := s.getAllLocked(collection)
	subs := make([]*memorySubscription, len(s.subs[collection]))
	copy(subs, s.subs[collection])
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

func (s *MemoryStore) getAllLocked(collection string) []Document {
	docs := make([]Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		docs = append(docs, cloneDocument(doc))
	}
	return docs
}

func (s *MemoryStore) addLocked(collection string, fields Document) string {
	id := uuid.NewString()
	doc := cloneDocument(fields)
	doc["id"] = id
	doc["createdAt"] = Now()
	doc["updatedAt"] = Now()
	s.ensureCollection(collection)[id] = doc
	return id
}

func (s *MemoryStore) updateLocked(collection, id string, fields Document) {
	existing, ok := s.collections[collection][id]
	if !ok {
		s.logger.Warn("update of missing document ignored",
			zap.String("collection", collection),
			zap.String("id", id),
		)
		return
	}
	merged := cloneDocument(existing)
	for k, v := range fields {
		merged[k] = v
	}
	merged["id"] = id
	merged["updatedAt"] = Now()
	s.collections[collection][id] = merged
}

func (s *MemoryStore) setLocked(collection, id string, fields Document) {
	doc := cloneDocument(fields)
	doc["id"] = id
	doc["updatedAt"] = Now()
	s.ensureCollection(collection)[id] = doc
}

func (s *MemoryStore) deleteLocked(collection, id string) {
	delete(s.collections[collection], id)
}

func (s *MemoryStore) ensureCollection(collection string) map[string]Document {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}
	return s.collections[collection]
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// memoryBatch is the Store handed to Batch callbacks; the parent's lock is
// already held, so it calls the locked internals directly.
type memoryBatch struct {
	store *MemoryStore
	dirty map[string]struct{}
}

func (b *memoryBatch) GetAll(_ context.Context, collection string) ([]Document, error) {
	return b.store.getAllLocked(collection), nil
}

func (b *memoryBatch) GetOne(_ context.Context, collection, id string) (Document, error) {
	doc, ok := b.store.collections[collection][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (b *memoryBatch) Add(_ context.Context, collection string, fields Document) (string, error) {
	b.dirty[collection] = struct{}{}
	return b.store.addLocked(collection, fields), nil
}

func (b *memoryBatch) Update(_ context.Context, collection, id string, fields Document) error {
	b.dirty[collection] = struct{}{}
	b.store.updateLocked(collection, id, fields)
	return nil
}

func (b *memoryBatch) Set(_ context.Context, collection, id string, fields Document) error {
	b.dirty[collection] = struct{}{}
	b.store.setLocked(collection, id, fields)
	return nil
}

func (b *memoryBatch) Delete(_ context.Context, collection, id string) error {
	b.dirty[collection] = struct{}{}
	b.store.deleteLocked(collection, id)
	return nil
}

func (b *memoryBatch) Clear(_ context.Context, collection string) error {
	b.dirty[collection] = struct{}{}
	delete(b.store.collections, collection)
	return nil
}

// Subscribe inside a batch registers the listener without the initial
// snapshot call; the post-batch notification delivers the first state.
func (b *memoryBatch) Subscribe(collection string, fn func([]Document)) UnsubscribeFunc {
	sub := &memorySubscription{fn: fn}
	b.store.subs[collection] = append(b.store.subs[collection], sub)
	b.dirty[collection] = struct{}{}
	return func() {
		b.store.mu.Lock()
		defer b.store.mu.Unlock()
		subs := b.store.subs[collection]
		for i, candidate := range subs {
			if candidate == sub {
				b.store.subs[collection] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}
