package badgerdb

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// ErrSettingNotFound is returned for an absent setting name.
var ErrSettingNotFound = errors.New("badgerdb: setting not found")

// Setting reads one named setting.
func (s *Store) Setting(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		value, err = getString(txn, settingKey(name))
		return err
	})
	if isNotFound(err) {
		return "", ErrSettingNotFound
	}
	return value, err
}

// PutSetting writes one named setting.
func (s *Store) PutSetting(ctx context.Context, name, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(settingKey(name), []byte(value))
	})
}
