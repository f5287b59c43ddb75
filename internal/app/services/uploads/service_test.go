package uploads

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Gather-Network/conference_layer/internal/app/storage/memory"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return New(memory.New(), t.TempDir(), nil)
}

func TestStoreAndOpen(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	created, err := s.Store(ctx, "user-1", "avatar.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if created.Size != int64(len("png-bytes")) {
		t.Fatalf("size = %d", created.Size)
	}

	meta, r, err := s.Open(ctx, created.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("content = %q", data)
	}
	if meta.Filename != "avatar.png" {
		t.Fatalf("filename = %q", meta.Filename)
	}
}

func TestStoreRejectsUnsupportedType(t *testing.T) {
	s := newService(t)

	if _, err := s.Store(context.Background(), "user-1", "notes.pdf", "application/pdf", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for unsupported content type")
	}
}

func TestStoreRejectsOversizedImage(t *testing.T) {
	s := newService(t)

	big := bytes.Repeat([]byte("a"), MaxSize+1)
	if _, err := s.Store(context.Background(), "user-1", "big.jpg", "image/jpeg", bytes.NewReader(big)); err == nil {
		t.Fatal("expected error for oversized image")
	}
}
