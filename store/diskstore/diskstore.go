// Package diskstore implements the store.KV contract on a diskv-backed
// directory of one file per key. It is the secondary persistence channel
// scanned by the legacy recovery probe, and works as a standalone store
// where SQLite is unwanted.
package diskstore

import (
	"github.com/peterbourgon/diskv/v3"
	"taskdeck/internal/utils"
	"taskdeck/store"
)

// Store persists each key as a flat file under one base directory.
type Store struct {
	d        *diskv.Diskv
	basePath string
}

// New creates a diskstore rooted at basePath. The directory is created
// lazily on first write.
func New(basePath string) *Store {
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			CacheSizeMax: 1024 * 1024, // 1MB
		}),
		basePath: basePath,
	}
}

// Read returns the value stored under key, or fallback when the key is
// missing or unreadable.
func (s *Store) Read(key string, fallback []byte) []byte {
	val, err := s.d.Read(key)
	if err != nil {
		return fallback
	}
	return val
}

// Write stores the value under key, dropping it with a log line on failure.
func (s *Store) Write(key string, value []byte) {
	if err := s.d.Write(key, value); err != nil {
		utils.Warnf("diskstore write %s dropped: %v", key, err)
	}
}

// Path returns the base directory.
func (s *Store) Path() string {
	return s.basePath
}

// Close is a no-op; diskv holds no open handles between operations.
func (s *Store) Close() error {
	return nil
}

// Verify interface compliance at compile time
var _ store.KV = (*Store)(nil)
