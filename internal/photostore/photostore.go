// Package photostore persists uploaded employee photos under
// collision-resistant generated names.
package photostore

import (
	"errors"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Upload carries the bytes and original filename of an uploaded photo.
type Upload struct {
	Filename string
	Content  io.Reader
}

//go:generate mockgen -source=photostore.go -destination=mock/photostore_mock.go -package=mock
type Manager interface {
	// Store writes the upload under a fresh unique name and returns that name.
	Store(upload Upload) (string, error)
	// Remove deletes a stored photo; removing a missing file is not an error,
	// so retiring an already-gone file is safe. Callers replacing a photo
	// Store the new file first and Remove the old one only once nothing
	// references it anymore.
	Remove(name string) error
}

type manager struct {
	files  FileStore
	logger *zap.Logger
}

func NewManager(files FileStore, logger ...*zap.Logger) Manager {
	l := zap.L().Named("photostore")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("photostore")
	}
	return &manager{files: files, logger: l}
}

func (m *manager) Store(upload Upload) (string, error) {
	if upload.Content == nil {
		return "", errors.New("photostore: upload has no content")
	}

	// Random prefix keeps names unique; the original filename is kept as a
	// suffix so the extension and a human-readable hint survive.
	name := uuid.NewString() + "_" + upload.Filename

	if m.files.Exists(name) {
		return "", errors.New("photostore: generated name already exists")
	}

	if err := m.files.Write(name, upload.Content); err != nil {
		m.logger.Error("store photo failed", zap.String("name", name), zap.Error(err))
		return "", err
	}

	m.logger.Debug("photo stored", zap.String("name", name))
	return name, nil
}

func (m *manager) Remove(name string) error {
	if name == "" {
		return nil
	}
	return m.files.Delete(name)
}
