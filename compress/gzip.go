// Package compress implements the streaming gzip compression used to turn
// a raw mdbx data file into the object bytes uploaded to the remote store,
// and back again on restore. Grounded on original_source's compression.rs
// (compress_file), using klauspost/compress instead of the stdlib
// compress/gzip package, matching the rest of the pack's preference.
package compress

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// CompressFile reads path and returns its gzip-compressed bytes, ready to
// upload as a snapshot object.
func CompressFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("compress: open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("compress: new writer: %w", err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return nil, fmt.Errorf("compress: copy %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: close writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressToFile gzip-decompresses content and writes it to path,
// truncating any existing file, used when restoring a downloaded snapshot.
func DecompressToFile(content []byte, path string) error {
	r, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("decompress: new reader: %w", err)
	}
	defer r.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("decompress: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("decompress: copy to %s: %w", path, err)
	}
	return nil
}
