// Package docstore provides a uniform CRUD-plus-subscription interface over
// collections of schema-less documents, with two backends: an in-memory
// store and a GORM/SQLite store. Documents carry a string id; timestamps
// are stored as RFC 3339 strings.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Document is a schema-less document as stored in a collection. The "id"
// field is always present on documents returned by a store.
type Document map[string]any

// ID returns the document id, or "" when unset
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// UnsubscribeFunc removes a previously registered subscription
type UnsubscribeFunc func()

// Store is the document-store contract consumed by the application layer.
//
// Update is a merge of partial fields into an existing document; it warns
// and no-ops when the id does not exist. Set is an upsert that preserves a
// caller-supplied id. Subscribe invokes the callback with the full current
// document list immediately and again after every mutation of the
// collection.
type Store interface {
	GetAll(ctx context.Context, collection string) ([]Document, error)
	GetOne(ctx context.Context, collection, id string) (Document, error)
	Add(ctx context.Context, collection string, fields Document) (string, error)
	Update(ctx context.Context, collection, id string, fields Document) error
	Set(ctx context.Context, collection, id string, fields Document) error
	Delete(ctx context.Context, collection, id string) error
	Clear(ctx context.Context, collection string) error
	Subscribe(collection string, fn func(docs []Document)) UnsubscribeFunc
}

// Batcher is implemented by stores that can apply a multi-step sequence as
// one unit. The GORM store runs the function inside a database transaction;
// the memory store applies it under a single lock. Change notifications for
// the touched collections fire once, after the batch completes.
type Batcher interface {
	Batch(ctx context.Context, fn func(s Store) error) error
}

// timestampLayout matches the ISO-8601 strings the store writes into
// createdAt/updatedAt fields
const timestampLayout = time.RFC3339Nano

// Now returns the current time formatted the way the store stamps documents
func Now() string {
	return time.Now().Format(timestampLayout)
}

// Encode converts an entity into a Document via its JSON representation
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return doc, nil
}

// EncodeNew converts an entity into a Document for insertion, dropping any
// id so the store assigns one
func EncodeNew(v any) (Document, error) {
	doc, err := Encode(v)
	if err != nil {
		return nil, err
	}
	delete(doc, "id")
	return doc, nil
}

// Decode populates an entity from a Document via its JSON representation
func Decode(doc Document, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

// DecodeAll decodes every document in a collection listing into typed values
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := Decode(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GetAllAs reads a full collection and decodes it into typed values
func GetAllAs[T any](ctx context.Context, s Store, collection string) ([]T, error) {
	docs, err := s.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	return DecodeAll[T](docs)
}
