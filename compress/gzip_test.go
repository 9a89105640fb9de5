package compress

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCompressFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "mdbx.dat")
	want := []byte("synthetic mdbx page bytes, repeated enough to compress: " +
		"0123456789012345678901234567890123456789012345678901234567890123456789")
	if err := os.WriteFile(srcPath, want, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	compressed, err := CompressFile(srcPath)
	if err != nil {
		t.Fatalf("CompressFile: %v", err)
	}
	if len(compressed) == 0 {
		t.Fatal("compressed output must not be empty")
	}

	dstPath := filepath.Join(dir, "restored.dat")
	if err := DecompressToFile(compressed, dstPath); err != nil {
		t.Fatalf("DecompressToFile: %v", err)
	}

	got, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("round-tripped content = %q, want %q", got, want)
	}
}

func TestDecompressToFileTruncatesExisting(t *testing.T) {
	dir := t.TempDir()
	compressed, err := func() ([]byte, error) {
		tmp := filepath.Join(dir, "source.dat")
		if err := os.WriteFile(tmp, []byte("short"), 0o644); err != nil {
			return nil, err
		}
		return CompressFile(tmp)
	}()
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	dstPath := filepath.Join(dir, "dest.dat")
	if err := os.WriteFile(dstPath, []byte("this is much longer stale content that must be gone"), 0o644); err != nil {
		t.Fatalf("seed stale dest: %v", err)
	}

	if err := DecompressToFile(compressed, dstPath); err != nil {
		t.Fatalf("DecompressToFile: %v", err)
	}
	got, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "short" {
		t.Fatalf("dest content = %q, want %q (stale tail must be truncated)", got, "short")
	}
}

func TestCompressFileMissingSource(t *testing.T) {
	if _, err := CompressFile(filepath.Join(t.TempDir(), "missing.dat")); err == nil {
		t.Fatal("expected an error compressing a nonexistent file")
	}
}
