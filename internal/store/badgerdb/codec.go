package badgerdb

import (
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(data []byte) error {
		return json.Unmarshal(data, v)
	})
}

func getString(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if err != nil {
		return "", err
	}
	var out string
	err = item.Value(func(data []byte) error {
		out = string(data)
		return nil
	})
	return out, err
}

func isNotFound(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}

// keysWithPrefix collects index keys in ascending order.
func keysWithPrefix(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// deleteWithPrefix removes every key under the prefix.
func deleteWithPrefix(txn *badger.Txn, prefix []byte) error {
	for _, key := range keysWithPrefix(txn, prefix) {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
