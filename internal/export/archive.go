package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/metrics"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"go.uber.org/zap"
)

// Uploader stores a rendered file and returns its download URL
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, content io.Reader) (string, error)
}

// File is a rendered export
type File struct {
	Name       string
	Format     Format
	Data       []byte
	ArchiveURL string
}

// Archiver copies exports to object storage when an uploader is configured
type Archiver struct {
	uploader Uploader
}

// NewArchiver returns an archiver; a nil uploader disables archiving
func NewArchiver(uploader Uploader) *Archiver {
	return &Archiver{uploader: uploader}
}

// Enabled reports whether files are archived
func (a *Archiver) Enabled() bool {
	return a != nil && a.uploader != nil
}

// Archive uploads file and records its URL. Without an uploader it is a no-op.
func (a *Archiver) Archive(ctx context.Context, dataset string, file *File) error {
	metrics.RecordExport(dataset, string(file.Format))
	if !a.Enabled() {
		return nil
	}

	url, err := a.uploader.Upload(ctx, file.Name, file.Format.ContentType(), bytes.NewReader(file.Data))
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", file.Name, err)
	}
	file.ArchiveURL = url
	logger.Info(ctx, "Export archived", zap.String("file", file.Name), zap.String("url", url))
	return nil
}

// Render runs write into memory and names the result after dataset and at
func Render(dataset string, f Format, at time.Time, write func(io.Writer) error) (*File, error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return nil, err
	}
	return &File{Name: Filename(dataset, f, at), Format: f, Data: buf.Bytes()}, nil
}
