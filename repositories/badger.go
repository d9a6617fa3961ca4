package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"kinder-chat/errors"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const keySeparator = ":"

// validSegments reports whether every id can stand as one key segment.
// An id holding the separator would let the prefix scan of another id reach its rows.
func validSegments(ids ...string) bool {
	for _, id := range ids {
		if id == "" || strings.Contains(id, keySeparator) {
			return false
		}
	}
	return true
}

// storeErr tags a badger failure as an upstream store error.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errors.ErrStore, err)
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// getJSON decodes the value of key into v, returning notFound when the key is absent.
func getJSON(txn *badger.Txn, key string, v any, notFound error) error {
	item, err := txn.Get([]byte(key))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return notFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// scanPrefix decodes every value under prefix, in key order.
func scanPrefix[T any](txn *badger.Txn, prefix string) ([]T, error) {
	var res []T
	p := []byte(prefix)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}
