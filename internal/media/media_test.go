package media_test

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/sahan/donkeywatch/internal/media"
	"github.com/sahan/donkeywatch/internal/model"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		contentType string
		want        model.MediaKind
		wantErr     bool
	}{
		{"image/jpeg", model.MediaKindPhoto, false},
		{"image/png", model.MediaKindPhoto, false},
		{"video/mp4", model.MediaKindVideo, false},
		{"video/webm", model.MediaKindVideo, false},
		{"application/pdf", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		kind, err := media.KindOf(tc.contentType)
		if tc.wantErr {
			if err == nil {
				t.Errorf("KindOf(%q): expected error", tc.contentType)
			}
			continue
		}
		if err != nil {
			t.Errorf("KindOf(%q): %v", tc.contentType, err)
			continue
		}
		if kind != tc.want {
			t.Errorf("KindOf(%q) = %q, want %q", tc.contentType, kind, tc.want)
		}
	}
}

func TestValidateCount(t *testing.T) {
	if err := media.ValidateCount(0, 5); err == nil {
		t.Error("zero attachments should be rejected")
	}
	if err := media.ValidateCount(5, 5); err != nil {
		t.Errorf("five of five should pass: %v", err)
	}
	err := media.ValidateCount(6, 5)
	if err == nil {
		t.Fatal("sixth attachment should be rejected")
	}
	if !strings.Contains(err.Error(), "6") || !strings.Contains(err.Error(), "5") {
		t.Errorf("error should name the count and the cap, got %q", err)
	}
}

func TestValidateVideoSize(t *testing.T) {
	limit := int64(30 * 1024 * 1024)
	if err := media.ValidateVideoSize("ok.mp4", limit, limit); err != nil {
		t.Errorf("video at the limit should pass: %v", err)
	}
	err := media.ValidateVideoSize("big.mp4", limit+1024*1024, limit)
	if err == nil {
		t.Fatal("oversized video should be rejected")
	}
	if !strings.Contains(err.Error(), "big.mp4") || !strings.Contains(err.Error(), "31.0 MB") {
		t.Errorf("error should name the file and size, got %q", err)
	}
}

func TestStoreSaveAndRemove(t *testing.T) {
	store, err := media.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	payload := []byte("fake image bytes")
	item, err := store.Save(media.Attachment{
		FileName:    "evidence.jpg",
		ContentType: "image/jpeg",
		Size:        int64(len(payload)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if item.Kind != model.MediaKindPhoto {
		t.Errorf("kind = %q, want photo", item.Kind)
	}
	if item.SizeBytes != int64(len(payload)) {
		t.Errorf("size = %d, want %d", item.SizeBytes, len(payload))
	}
	stored, err := os.ReadFile(item.StoredPath)
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if !bytes.Equal(stored, payload) {
		t.Error("stored bytes differ from the upload")
	}

	if err := store.Remove(item.StoredPath); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(item.StoredPath); !os.IsNotExist(err) {
		t.Error("file still present after Remove")
	}
	// Removing again is not an error.
	if err := store.Remove(item.StoredPath); err != nil {
		t.Errorf("second Remove should be a no-op: %v", err)
	}
}

func TestStoreSave_RejectsUnsupportedType(t *testing.T) {
	store, err := media.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	_, err = store.Save(media.Attachment{
		FileName:    "notes.txt",
		ContentType: "text/plain",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("x")), nil
		},
	})
	if err == nil {
		t.Error("unsupported content type should be rejected")
	}
}
