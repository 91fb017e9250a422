package photostore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// FileStore is the byte-addressable-by-name storage area for photos. The
// reference deployment is a local directory; other backends only need these
// three operations.
type FileStore interface {
	Write(name string, r io.Reader) error
	Delete(name string) error
	Exists(name string) bool
}

type diskStore struct {
	dir string
}

// NewDiskStore returns a FileStore rooted at dir, creating it if needed.
func NewDiskStore(dir string) (FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &diskStore{dir: dir}, nil
}

func (s *diskStore) Write(name string, r io.Reader) error {
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}

	return f.Close()
}

func (s *diskStore) Delete(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *diskStore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}
