package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLocalURL(t *testing.T) {
	disk := NewLocal("/storage/")
	got, err := disk.URL(context.Background(), "avatars/jane doe.png")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if got != "/storage/avatars/jane%20doe.png" {
		t.Fatalf("unexpected url %q", got)
	}
	if _, err := disk.URL(context.Background(), "../secret"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}

func TestDisksFiles(t *testing.T) {
	disks := NewDisks()
	if err := disks.Register("public", NewLocal("https://cdn.test")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := disks.Register("public", NewLocal("x")); err == nil {
		t.Fatalf("expected duplicate disk error")
	}

	got, err := disks.Files(context.Background(), "public", []any{
		"docs/a.pdf",
		map[string]any{"key": "img/b.png", "name": "Beach.png", "size": float64(2048)},
	})
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	want := []File{
		{Key: "docs/a.pdf", Name: "a.pdf", URL: "https://cdn.test/docs/a.pdf"},
		{Key: "img/b.png", Name: "Beach.png", URL: "https://cdn.test/img/b.png", Size: 2048},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}

	empty, err := disks.Files(context.Background(), "missing", nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty values need no disk, got %v %v", empty, err)
	}
	if _, err := disks.Files(context.Background(), "missing", "a.txt"); !errors.Is(err, ErrUnknownDisk) {
		t.Fatalf("expected ErrUnknownDisk, got %v", err)
	}
}

func TestS3URL(t *testing.T) {
	disk, err := NewS3(S3Config{
		Endpoint:  "minio.test:9000",
		Region:    "us-east-1",
		AccessKey: "formkit",
		SecretKey: "formkit-secret",
		Bucket:    "uploads",
	})
	if err != nil {
		t.Fatalf("new s3: %v", err)
	}
	got, err := disk.URL(context.Background(), "avatars/1.png")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if !strings.HasPrefix(got, "http://minio.test:9000/uploads/avatars/1.png?") || !strings.Contains(got, "X-Amz-Signature=") {
		t.Fatalf("expected presigned url, got %q", got)
	}

	public, err := NewS3(S3Config{Endpoint: "minio.test:9000", Bucket: "uploads", Public: true})
	if err != nil {
		t.Fatalf("new s3: %v", err)
	}
	if got, _ := public.URL(context.Background(), "/a.png"); got != "http://minio.test:9000/uploads/a.png" {
		t.Fatalf("unexpected public url %q", got)
	}
}
