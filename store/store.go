// Package store provides the key-value persistence used by the feed
// registry, calendar events and admin settings. Two backends exist: a
// plain-file store for development and an SQLite store for deployments.
// The backend is chosen once at startup; callers only see the Store
// interface. Concurrent admin writes are last-write-wins.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrKeyNotFound = errors.New("key not found")

type Store interface {
	// Get returns the raw value for key, with found=false when absent
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	// Keys lists all keys with the given prefix, "" for all
	Keys(prefix string) ([]string, error)
	Close() error
}

// GetJSON unmarshals the value at key into out. Returns found=false without
// touching out when the key is absent.
func GetJSON(s Store, key string, out interface{}) (bool, error) {
	raw, found, err := s.Get(key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode value for %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(s Store, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %s: %w", key, err)
	}
	return s.Set(key, raw)
}
