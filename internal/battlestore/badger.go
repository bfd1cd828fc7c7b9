package battlestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps slots in an embedded Badger database on local disk.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadgerStore opens (or creates) the database in dir.
func OpenBadgerStore(dir string, ttl time.Duration) (*BadgerStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("BADGER_DIR required for badger store")
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db, ttl: ttl}, nil
}

func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func slotKey(slot string) []byte { return []byte("slot:" + slot) }

func (s *BadgerStore) Save(ctx context.Context, slot string, saved SavedBattle) error {
	key, err := normalizeSlot(slot)
	if err != nil {
		return err
	}
	raw, err := encode(saved)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(slotKey(key), raw)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (s *BadgerStore) Load(ctx context.Context, slot string) (*SavedBattle, error) {
	key, err := normalizeSlot(slot)
	if err != nil {
		return nil, err
	}
	var raw []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(slotKey(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (s *BadgerStore) Delete(ctx context.Context, slot string) error {
	key, err := normalizeSlot(slot)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(slotKey(key))
	})
}
