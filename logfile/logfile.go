// Package logfile opens data-acquisition logs and the files exported from them. Paths ending in
// ".zst" are zstd compressed on disk and transparently decompressed.
package logfile

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ZstdExt marks a compressed file.
const ZstdExt = ".zst"

// Decoders are safe for concurrent use.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("logfile: zstd decoder initialization failed: " + err.Error())
	}
}

// IsCompressed reports whether path names a zstd compressed file.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, ZstdExt)
}

// ReadAll returns the decompressed contents of path.
func ReadAll(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading log %s", path)
	}
	if !IsCompressed(path) {
		return raw, nil
	}
	data, err := zstdDecoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing log %s", path)
	}
	return data, nil
}

// ReadHeader returns up to n leading bytes of the decompressed contents of path. A file shorter
// than n bytes is not an error; the returned slice is simply shorter.
func ReadHeader(path string, n int) (_ []byte, err error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening log %s", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	var r io.Reader = f
	if IsCompressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "decompressing log %s", path)
		}
		defer dec.Close()
		r = dec
	}

	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, errors.Wrapf(err, "reading header of %s", path)
	}
	return buf[:read], nil
}

type zstdFile struct {
	*zstd.Encoder
	f *os.File
}

func (z *zstdFile) Close() error {
	return multierr.Combine(z.Encoder.Close(), z.f.Close())
}

// Create creates path for writing, compressing everything written when path ends in ".zst".
func Create(path string) (io.WriteCloser, error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	if !IsCompressed(path) {
		return f, nil
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "compressing %s", path), f.Close())
	}
	return &zstdFile{Encoder: enc, f: f}, nil
}
