package backend

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"innerfs/internal/core"
)

// KVBackend stores each object as a key in an embedded badger database.
// Grounded on the txn.View/txn.Update and ErrKeyNotFound handling style
// used throughout the pack's badger-backed metadata store.
type KVBackend struct {
	db *badger.DB
}

func NewKVBackend(dir string) (*KVBackend, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "kv.new", dir, err)
	}
	return &KVBackend{db: db}, nil
}

func (b *KVBackend) Close() error {
	if err := b.db.Close(); err != nil {
		return core.NewError(core.KindBackendIO, "kv.close", "", err)
	}
	return nil
}

func (b *KVBackend) Put(name string, data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), data)
	})
	if err != nil {
		return core.NewError(core.KindBackendIO, "kv.put", name, err)
	}
	return nil
}

func (b *KVBackend) Get(name string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, core.NewError(core.KindNoEntry, "kv.get", name, err)
	}
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "kv.get", name, err)
	}
	return out, nil
}

func (b *KVBackend) Delete(name string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return core.NewError(core.KindBackendIO, "kv.delete", name, err)
	}
	return nil
}

func (b *KVBackend) Exists(name string) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, core.NewError(core.KindBackendIO, "kv.exists", name, err)
	}
	return found, nil
}

func (b *KVBackend) List() (core.NameIterator, error) {
	var names []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().Key()))
		}
		return nil
	})
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "kv.list", "", err)
	}
	return core.NewSliceNameIterator(names), nil
}

func (b *KVBackend) FreeBytes() (int64, bool) { return 0, false }
