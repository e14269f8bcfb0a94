//go:build linux

package shmregion

import (
	"os"
	"testing"
)

func uniqueRegionName(t *testing.T) string {
	t.Helper()
	return "/shmregion_test_" + t.Name() + "_" + string(rune('a'+os.Getpid()%26))
}

func TestCreateOpenDestroy(t *testing.T) {
	name := uniqueRegionName(t)
	region, err := Create(name, 4096, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if region.Size() != 4096 {
		t.Fatalf("Size() = %d, want 4096", region.Size())
	}
	region.Bytes()[0] = 0x42

	reader, err := OpenReadOnly(name)
	if err != nil {
		t.Fatalf("OpenReadOnly: %v", err)
	}
	if reader.Bytes()[0] != 0x42 {
		t.Fatalf("reader observed %x, want 0x42", reader.Bytes()[0])
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("reader Close: %v", err)
	}

	if err := region.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	if _, err := OpenReadOnly(name); err == nil {
		t.Fatal("expected OpenReadOnly to fail after Destroy")
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	name := uniqueRegionName(t)
	r1, err := Create(name, 4096, false)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	defer r1.Destroy()

	r2, err := Create(name, 4096, false)
	if err != nil {
		t.Fatalf("second Create on same name: %v", err)
	}
	r2.Close()
}

func TestOpenNonexistentFails(t *testing.T) {
	if _, err := OpenReadOnly("/shmregion_does_not_exist_ever"); err == nil {
		t.Fatal("expected error opening a nonexistent region")
	}
}
