package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"lumen/rgbimage"

	"github.com/dgraph-io/badger"
	"github.com/golang/glog"
)

const badgerKeyPrefix = "accumulations/"

// BadgerStore keeps accumulations in a local badger database.
type BadgerStore struct {
	DB *badger.DB
}

// glogLogger routes badger's internal logging through glog.
type glogLogger struct{}

func (glogLogger) Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(1, fmt.Sprintf(format, args...))
}

func (glogLogger) Warningf(format string, args ...interface{}) {
	glog.WarningDepth(1, fmt.Sprintf(format, args...))
}

func (glogLogger) Infof(format string, args ...interface{}) {
	if glog.V(1) {
		glog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

func (glogLogger) Debugf(format string, args ...interface{}) {
	if glog.V(2) {
		glog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

// OpenBadgerStore opens (creating if needed) the database in dataDir.
func OpenBadgerStore(dataDir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dataDir).WithLogger(glogLogger{}))
	if err != nil {
		return nil, fmt.Errorf("while opening badger kv dir: %w", err)
	}
	return &BadgerStore{DB: db}, nil
}

func badgerKey(key string) []byte {
	return []byte(badgerKeyPrefix + key)
}

func (s *BadgerStore) Put(ctx context.Context, key string, acc *rgbimage.Accumulation) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	data, err := encode(acc)
	if err != nil {
		return err
	}

	err = s.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(key), data)
	})
	if err != nil {
		return fmt.Errorf("while writing checkpoint %q: %w", key, err)
	}

	glog.V(1).Infof("Wrote checkpoint %q (%d samples) to badger", key, acc.Samples)
	return nil
}

func (s *BadgerStore) Get(ctx context.Context, key string) (*rgbimage.Accumulation, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	var data []byte
	err := s.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("while reading checkpoint %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("while reading checkpoint %q: %w", key, err)
	}

	return decode(data)
}

// Keys lists every stored checkpoint key.  Badger iterates in key order, so
// the result is sorted.
func (s *BadgerStore) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	err := s.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: false,
			Prefix:         []byte(badgerKeyPrefix),
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)[len(badgerKeyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("while listing checkpoints: %w", err)
	}
	return keys, nil
}

func (s *BadgerStore) Close() error {
	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("while closing database: %w", err)
	}
	return nil
}
