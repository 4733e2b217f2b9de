// Package jsonfile stores all progress in a single JSON document on disk,
// using the same layout as an exported progress object.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/snapshot"
)

const lockRetry = 25 * time.Millisecond

// Store is the file storage backend. Writers in other processes are excluded
// with an advisory lock next to the data file; the last writer wins.
type Store struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex

	progress *progressRepository
	history  *historyRepository
	settings *settingsRepository
}

// Open prepares a store at path. The file is created on first write.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create directory: %w", err)
	}

	s := &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
	s.progress = &progressRepository{store: s}
	s.history = &historyRepository{store: s}
	s.settings = &settingsRepository{store: s}
	return s, nil
}

func (s *Store) Progress() repository.ProgressRepository   { return s.progress }
func (s *Store) History() repository.TestHistoryRepository { return s.history }
func (s *Store) Settings() repository.SettingsRepository   { return s.settings }

// Ping checks that the data file, if present, can be read.
func (s *Store) Ping(ctx context.Context) error {
	return s.view(ctx, func(snapshot.Document) error { return nil })
}

func (s *Store) Close() error {
	return s.lock.Close()
}

func (s *Store) read(ctx context.Context) (snapshot.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snapshot.NewDocument(), nil
	}
	if err != nil {
		return snapshot.Document{}, err
	}
	return snapshot.DecodeDocument(ctx, data), nil
}

// view runs fn on the current document under a shared lock.
func (s *Store) view(ctx context.Context, fn func(snapshot.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lock.TryRLockContext(ctx, lockRetry); err != nil {
		return fmt.Errorf("jsonfile: acquire read lock: %w", err)
	}
	defer s.lock.Unlock()

	doc, err := s.read(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// update runs fn on the current document under an exclusive lock and writes
// the result atomically if fn succeeds.
func (s *Store) update(ctx context.Context, fn func(*snapshot.Document) error) error {
	log := logger.FromContext(ctx).WithPrefix("jsonfile")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lock.TryLockContext(ctx, lockRetry); err != nil {
		return fmt.Errorf("jsonfile: acquire write lock: %w", err)
	}
	defer s.lock.Unlock()

	doc, err := s.read(ctx)
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}

	data, err := snapshot.EncodeDocument(doc)
	if err != nil {
		return err
	}
	if err := writeAtomic(s.path, data); err != nil {
		log.Error("failed to write %s: %v", s.path, err)
		return err
	}
	log.Debug("wrote %d bytes to %s", len(data), s.path)
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
