// internal/workers/application/store-loan-document/handler.go
package storeloandocument

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/metrics"
	"loan-intake/internal/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	TaskType = "store-loan-document"
)

type Handler struct {
	config *Config
	clock  clockwork.Clock
	logger logger.Logger
}

func NewHandler(config *Config, clock clockwork.Clock, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handler{
		config: config,
		clock:  clock,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// EnsureDir creates the upload directory if it does not exist yet.
func (h *Handler) EnsureDir() error {
	if err := os.MkdirAll(h.config.Dir, h.config.DirMode); err != nil {
		return errors.NewStorageError(fmt.Errorf("create upload dir: %w", err)).
			WithMetadata("dir", h.config.Dir)
	}
	return nil
}

// Execute writes the upload under <field>-<unixMillis>-<uuid><ext>.
func (h *Handler) Execute(ctx context.Context, input *Input) (*models.UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStorageError(err)
	}
	if err := h.EnsureDir(); err != nil {
		return nil, err
	}

	name := h.storedName(input.OriginalName)
	path := filepath.Join(h.config.Dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, h.config.FileMode)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Errorf("create upload file: %w", err)).
			WithMetadata("dir", h.config.Dir)
	}

	size, err := io.Copy(f, input.Content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, errors.NewStorageError(fmt.Errorf("write upload file: %w", err)).
			WithMetadata("path", path)
	}

	metrics.UploadBytes.Observe(float64(size))
	h.logger.Info("loan document stored", map[string]interface{}{
		"storedPath":   path,
		"originalName": input.OriginalName,
		"size":         size,
	})

	return &models.UploadedFile{
		OriginalName: input.OriginalName,
		StoredPath:   path,
		FieldName:    h.config.FieldName,
		Size:         size,
		ContentType:  input.ContentType,
	}, nil
}

// Remove deletes a stored file. Failures are logged, never returned.
func (h *Handler) Remove(file *models.UploadedFile) {
	if file == nil || file.StoredPath == "" {
		return
	}
	if err := os.Remove(file.StoredPath); err != nil {
		if os.IsNotExist(err) {
			return
		}
		h.logger.Warn("failed to delete uploaded file", map[string]interface{}{
			"storedPath": file.StoredPath,
			"error":      err,
		})
		return
	}
	h.logger.Debug("uploaded file deleted", map[string]interface{}{"storedPath": file.StoredPath})
}

func (h *Handler) storedName(originalName string) string {
	return fmt.Sprintf("%s-%d-%s%s",
		h.config.FieldName,
		h.clock.Now().UnixMilli(),
		uuid.NewString(),
		extension(originalName),
	)
}

// extension returns the original name's last extension. Dotfiles such as
// ".env" have none.
func extension(originalName string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, `\`, "/"))
	ext := filepath.Ext(base)
	if ext == base || ext == "." {
		return ""
	}
	return ext
}
