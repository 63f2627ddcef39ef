package badger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
)

// DocumentStore implements storage.DocumentStore for BadgerDB.
type DocumentStore struct {
	backend *Backend
	idSeq   *badger.Sequence
	logger  *slog.Logger
}

var _ storage.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore creates a new DocumentStore on the shared backend.
//
// Returns storage.DocumentStore interface to enforce abstraction.
func NewDocumentStore(backend *Backend) (storage.DocumentStore, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}
	return &DocumentStore{
		backend: backend,
		idSeq:   idSeq,
		logger:  slog.Default().With("component", "document-store"),
	}, nil
}

// Close releases the ID sequence. The shared backend is closed by its owner.
func (s *DocumentStore) Close() error {
	return s.idSeq.Release()
}

// nextID draws a fresh ID from the sequence, skipping the 0 a BadgerDB
// sequence can yield on first use (0 means "unassigned" everywhere else).
func (s *DocumentStore) nextID() (core.ID, error) {
	next, err := s.idSeq.Next()
	if err != nil {
		return 0, err
	}
	if next == 0 {
		next, err = s.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(next), nil
}

// Put persists the item and returns its canonical id.
//
// Identity rules: an item with an id updates that record in place; an item
// without an id whose fingerprint matches an existing record reuses that
// record's id; otherwise a fresh id is assigned. The fingerprint lookup and
// the write happen in one transaction so concurrent ingests of the same URL
// cannot mint two ids.
func (s *DocumentStore) Put(ctx context.Context, item *core.ContentItem) (core.ID, error) {
	if item == nil {
		return 0, storage.ErrInvalidQuery
	}

	err := s.backend.Update(func(tx *badger.Txn) error {
		now := time.Now().UTC()

		id := item.Id
		if id == 0 {
			if fp := item.Fingerprint(); fp != 0 {
				existing, err := readIndexID(tx, makeFingerprintKey(fp))
				if err != nil {
					return err
				}
				id = existing // 0 when the fingerprint is new
			}
		}

		var old *core.ContentItem
		if id != 0 {
			var err error
			old, err = readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
		}

		if id == 0 {
			fresh, err := s.nextID()
			if err != nil {
				return err
			}
			id = fresh
		}
		item.Id = id

		if old != nil {
			item.InsertedAt = old.InsertedAt
		} else if item.InsertedAt.IsZero() {
			item.InsertedAt = now
		}
		item.UpdatedAt = now
		if item.CrawlTime.IsZero() {
			item.CrawlTime = now
		}

		value, err := storage.MarshalContentItem(item)
		if err != nil {
			return err
		}
		if err := tx.Set(makeDocumentKey(id), value); err != nil {
			return err
		}

		// Maintain the publish-time index, dropping a stale entry when an
		// update moved the publish time.
		if old != nil && !old.PublishTime.Equal(item.PublishTime) {
			if err := tx.Delete(makeDocumentDateKey(old.PublishTime, id)); err != nil {
				return err
			}
		}
		if err := tx.Set(makeDocumentDateKey(item.PublishTime, id), marshalID(id)); err != nil {
			return err
		}

		if fp := item.Fingerprint(); fp != 0 {
			if err := tx.Set(makeFingerprintKey(fp), marshalID(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("content stored", "id", item.Id, "platform", item.Platform)
	return item.Id, nil
}

// Get retrieves a single item by id.
func (s *DocumentStore) Get(ctx context.Context, id core.ID) (*core.ContentItem, error) {
	var item *core.ContentItem
	err := s.backend.View(func(tx *badger.Txn) error {
		var err error
		item, err = readDocument(tx, makeDocumentKey(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, storage.ErrNotFound
	}
	return item, nil
}

// Find retrieves items matching the filter, ordered by publish time
// descending.
func (s *DocumentStore) Find(ctx context.Context, filter storage.DocumentFilter, skip, limit int) ([]*core.ContentItem, error) {
	results := []*core.ContentItem{}
	skipped := 0

	err := s.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the newest possible date-index entry; reverse iteration
		// then walks publish times newest first.
		startKey := makePartialDocumentDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(documentDatePrefix + ":")

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = unmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			item, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if item == nil || !filter.Matches(item) {
				continue
			}

			if skipped < skip {
				skipped++
				continue
			}
			results = append(results, item)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
		return nil
	})
	return results, err
}

// Exists reports whether any item matches the filter.
func (s *DocumentStore) Exists(ctx context.Context, filter storage.DocumentFilter) (bool, error) {
	matches, err := s.Find(ctx, filter, 0, 1)
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

// SearchText retrieves items whose title or text contains all query words.
func (s *DocumentStore) SearchText(ctx context.Context, query string, limit int) ([]*core.ContentItem, error) {
	results := []*core.ContentItem{}

	err := s.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var item *core.ContentItem
			err := iter.Item().Value(func(val []byte) error {
				var err error
				item, err = storage.UnmarshalContentItem(val)
				return err
			})
			if err != nil {
				return err
			}
			if item == nil {
				continue
			}

			haystack := item.Title + "\n" + item.EmbeddingText()
			if !containsAllQueryWords(haystack, query) {
				continue
			}
			results = append(results, item)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
		return nil
	})
	return results, err
}

// readDocument reads and deserializes a content item, returning nil when the
// key is absent.
func readDocument(tx *badger.Txn, key []byte) (*core.ContentItem, error) {
	entry, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var item *core.ContentItem
	err = entry.Value(func(val []byte) error {
		var err error
		item, err = storage.UnmarshalContentItem(val)
		return err
	})
	return item, err
}

// readIndexID reads an index value holding an ID, returning 0 when absent.
func readIndexID(tx *badger.Txn, key []byte) (core.ID, error) {
	entry, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var id core.ID
	err = entry.Value(func(val []byte) error {
		var err error
		id, err = unmarshalID(val)
		return err
	})
	return id, err
}
