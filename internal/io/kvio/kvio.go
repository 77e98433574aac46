package kvio

import (
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v2"
	"github.com/gnames/gncoleta/internal/ent/kv"
	"github.com/gnames/gnsys"
)

type kvio struct {
	dir string
	kv  *badger.DB
}

// New returns a new instance of kvio. An empty dir creates an in-memory
// store, otherwise the directory is created and cleaned, the cache never
// outlives a session.
func New(dir string) (kv.KeyVal, error) {
	res := kvio{
		dir: dir,
	}
	if dir == "" {
		return &res, nil
	}

	err := gnsys.MakeDir(dir)
	if err != nil {
		slog.Error("Cannot create directory", "error", err, "dir", dir)
		return nil, err
	}

	err = gnsys.CleanDir(dir)
	if err != nil {
		slog.Error("Cannot reset key-value store", "error", err, "dir", dir)
		return nil, err
	}

	return &res, nil
}

// Open opens a key-value store.
func (k *kvio) Open() error {
	if k.kv != nil {
		slog.Warn("Key-value store is already open")
		return nil
	}
	options := badger.DefaultOptions(k.dir)
	if k.dir == "" {
		options = badger.DefaultOptions("").WithInMemory(true)
	}
	options.Logger = nil

	bdb, err := badger.Open(options)
	if err != nil {
		return err
	}
	k.kv = bdb
	return nil
}

// Close closes a key-value store.
func (k *kvio) Close() error {
	if k.kv == nil {
		slog.Warn("Key-value store is not open")
		return nil
	}
	err := k.kv.Close()
	k.kv = nil
	return err
}

// GetValue returns a value for a given key.
func (k *kvio) GetValue(key []byte) ([]byte, error) {
	if k.kv == nil {
		return nil, errors.New("key-value store is not open")
	}
	txn := k.kv.NewTransaction(false)
	defer txn.Discard()
	val, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var res []byte
	return val.ValueCopy(res)
}

// SetValue saves a key-value pair.
func (k *kvio) SetValue(key, val []byte) error {
	if k.kv == nil {
		return errors.New("key-value store is not open")
	}
	return k.kv.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// SetRecords saves a batch of records.
func (k *kvio) SetRecords(recs []kv.Record) error {
	if k.kv == nil {
		return errors.New("key-value store is not open")
	}
	wb := k.kv.NewWriteBatch()
	defer wb.Cancel()
	for _, r := range recs {
		if err := wb.Set(r.Key, r.Value); err != nil {
			slog.Error("Cannot add record to batch", "error", err)
			return err
		}
	}
	return wb.Flush()
}
