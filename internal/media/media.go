// Package media enforces the attachment rules for report submissions and
// persists accepted evidence files.
package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sahan/donkeywatch/internal/model"
)

// Attachment is one uploaded file, independent of its transport.
type Attachment struct {
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// KindOf classifies an attachment by its content type.
func KindOf(contentType string) (model.MediaKind, error) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return model.MediaKindPhoto, nil
	case strings.HasPrefix(contentType, "video/"):
		return model.MediaKindVideo, nil
	default:
		return "", fmt.Errorf("unsupported media type %q", contentType)
	}
}

// ValidateCount checks the attachment count against the cap. At least one
// attachment is required.
func ValidateCount(count, max int) error {
	if count == 0 {
		return fmt.Errorf("at least one photo or video attachment is required")
	}
	if count > max {
		return fmt.Errorf("too many attachments: %d files exceed the limit of %d", count, max)
	}
	return nil
}

// ValidateVideoSize rejects videos over the size cap, naming the offending
// file and its size.
func ValidateVideoSize(fileName string, size, max int64) error {
	if size > max {
		return fmt.Errorf(
			"video %s is %.1f MB, the limit is %d MB",
			fileName,
			float64(size)/(1024*1024),
			max/(1024*1024),
		)
	}
	return nil
}

// Store writes evidence files into a local directory.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save streams the attachment to disk and returns its evidence record, not yet
// bound to a report.
func (s *Store) Save(att Attachment) (model.Evidence, error) {
	kind, err := KindOf(att.ContentType)
	if err != nil {
		return model.Evidence{}, err
	}

	src, err := att.Open()
	if err != nil {
		return model.Evidence{}, fmt.Errorf("open attachment %s: %w", att.FileName, err)
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(att.FileName))
	path := filepath.Join(s.dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return model.Evidence{}, fmt.Errorf("create evidence file: %w", err)
	}

	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return model.Evidence{}, fmt.Errorf("store attachment %s: %w", att.FileName, err)
	}

	return model.Evidence{
		FileName:    att.FileName,
		ContentType: att.ContentType,
		Kind:        kind,
		SizeBytes:   written,
		StoredPath:  path,
	}, nil
}

// Remove deletes one stored evidence file. Missing files are not an error.
func (s *Store) Remove(storedPath string) error {
	if err := os.Remove(storedPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll cleans up every stored file of a failed submission.
func (s *Store) RemoveAll(evidence []model.Evidence) {
	for _, item := range evidence {
		_ = s.Remove(item.StoredPath)
	}
}
