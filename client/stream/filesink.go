package stream

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink is an output sink backed by a temporary file in the
// destination's directory. Bytes land in the temp file; Commit fsyncs
// and renames it into place, Abort removes it. Either way the
// destination never holds a partial body.
type FileSink struct {
	dest     string
	tmp      *os.File
	resolved bool
}

// NewFileSink creates a sink that will materialize at destPath on Commit.
func NewFileSink(destPath string) (*FileSink, error) {
	if destPath == "" {
		return nil, errors.New("destPath must not be empty")
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".streamsink-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}

	return &FileSink{dest: destPath, tmp: tmp}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	return s.tmp.Write(p)
}

// Commit flushes the temp file to disk and renames it to the
// destination path.
func (s *FileSink) Commit() error {
	if s.resolved {
		return errors.New("sink already resolved")
	}
	s.resolved = true

	if err := s.tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := s.tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(s.tmp.Name(), s.dest); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// Abort discards the temp file. Safe to call after Commit; it then
// does nothing.
func (s *FileSink) Abort() error {
	if s.resolved {
		return nil
	}
	s.resolved = true

	if err := s.tmp.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Remove(s.tmp.Name()); err != nil {
		return fmt.Errorf("removing temp file: %w", err)
	}

	return nil
}
