package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// CompressedSuffix marks a zstd-compressed artifact ("reduced.json.zst").
const CompressedSuffix = ".zst"

// zstdReadCloser closes both the decoder and the underlying reader.
type zstdReadCloser struct {
	*zstd.Decoder
	under io.Closer
}

func (z *zstdReadCloser) Close() error {
	z.Decoder.Close()
	return z.under.Close()
}

// open opens name from src, falling back to name+".zst" when the plain
// file is absent.
func open(ctx context.Context, src Source, name string) (io.ReadCloser, error) {
	rc, err := src.Open(ctx, name)
	if err == nil {
		return rc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	zrc, zerr := src.Open(ctx, name+CompressedSuffix)
	if zerr != nil {
		if errors.Is(zerr, ErrNotFound) {
			return nil, err
		}
		return nil, zerr
	}

	dec, derr := zstd.NewReader(zrc)
	if derr != nil {
		zrc.Close()
		return nil, fmt.Errorf("opening zstd stream %s: %w", name+CompressedSuffix, derr)
	}
	return &zstdReadCloser{Decoder: dec, under: zrc}, nil
}

// decodeJSON opens name from src and decodes one JSON document into v.
func decodeJSON(ctx context.Context, src Source, name string, v any) error {
	rc, err := open(ctx, src, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// writeFile writes data to dir/name atomically, compressing with zstd when
// compress is set (the file then gets the ".zst" suffix).
func writeFile(dir, name string, data []byte, compress bool) error {
	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("creating zstd encoder: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
		name += CompressedSuffix
	}

	path := filepath.Join(dir, name)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming %s: %w", name, err)
	}
	return nil
}
