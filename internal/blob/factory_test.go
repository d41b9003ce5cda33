package blob

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	mem, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil || mem.Driver() != DriverMemory {
		t.Fatalf("memory driver: %v %v", mem, err)
	}
	fs, err := Open(ctx, Config{FSRoot: t.TempDir()})
	if err != nil || fs.Driver() != DriverFilesystem {
		t.Fatalf("default driver should be fs: %v", err)
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected s3 without bucket to fail")
	}
	if _, err := Open(ctx, Config{Driver: "gcs"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestDriverValid(t *testing.T) {
	for _, d := range []Driver{DriverFilesystem, DriverS3, DriverMemory} {
		if !d.Valid() {
			t.Fatalf("%s should be valid", d)
		}
	}
	if Driver("ftp").Valid() {
		t.Fatalf("ftp should not be valid")
	}
}

func TestStoresShareSentinels(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem: %v", err)
	}
	for _, store := range []Store{NewMemory(), fs, NewMockS3ForTests()} {
		if _, err := store.Put(ctx, "run/productos.csv", bytes.NewReader([]byte("id\n")), PutOptions{ContentType: "text/csv"}); err != nil {
			t.Fatalf("%s put: %v", store.Driver(), err)
		}
		if _, err := store.Put(ctx, "run/productos.csv", bytes.NewReader([]byte("id\n")), PutOptions{}); !errors.Is(err, ErrExists) {
			t.Fatalf("%s duplicate put: %v", store.Driver(), err)
		}
		if _, err := store.Head(ctx, "run/missing.csv"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s head missing: %v", store.Driver(), err)
		}
	}
}
