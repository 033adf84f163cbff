package object

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"delta/internal/errors"
)

const badgerKeyPrefix = "commit:"

// BadgerStore is a Store backed by a badger database, for repositories
// initialized with the badger object backend. The database lives inside
// the repository directory so a structural clone still carries it.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (creating if needed) the badger database at dir with
// logging disabled.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening object database: %w", err)
	}
	return db, nil
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadgerStore opens the database at dir and wraps it in a store. The
// caller owns the handle and releases it through Close.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	db, err := OpenBadger(dir)
	if err != nil {
		return nil, err
	}
	return NewBadgerStore(db), nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func makeKey(fingerprint string) []byte {
	return []byte(badgerKeyPrefix + fingerprint)
}

func (s *BadgerStore) Put(c *Commit) error {
	if c.Fingerprint == "" {
		return errors.Internal("commit fingerprint cannot be empty")
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding commit %s: %w", c.Fingerprint, err)
	}

	key := makeKey(c.Fingerprint)
	return s.db.Update(func(txn *badger.Txn) error {
		// Existing key means identical content; the fingerprint is derived
		// from the record.
		if _, err := txn.Get(key); err == nil {
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerStore) Get(fingerprint string) (*Commit, error) {
	var c Commit
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeKey(fingerprint))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &c)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.NotFound(fmt.Sprintf("object not found: %s", fingerprint))
	}
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", fingerprint, err)
	}
	return &c, nil
}

func (s *BadgerStore) Has(fingerprint string) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(makeKey(fingerprint))
		return err
	})
	return err == nil
}
