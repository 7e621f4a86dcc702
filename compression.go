// Package calcium holds the input helpers shared by the calcium tools:
// transparent decompression of text exports, delimiter sniffing and home
// directory expansion.
package calcium

import (
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"os"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type Compression byte

const (
	CompressionUnknown Compression = iota
	CompressionNone
	CompressionGzip
	CompressionZip
	CompressionXZ
	CompressionZ
	CompressionBZip2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZip:
		return "zip"
	case CompressionXZ:
		return "xz"
	case CompressionZ:
		return "zlib"
	case CompressionBZip2:
		return "bzip2"
	}
	return "unknown"
}

// Magic numbers, see https://stackoverflow.com/a/19127748/199475
var signatures = []struct {
	c   Compression
	sig []byte
}{
	{CompressionXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{CompressionZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{CompressionGzip, []byte{0x1f, 0x8b, 0x08}},
	{CompressionBZip2, []byte{0x42, 0x5a, 0x68}},
	{CompressionZ, []byte{0x1f, 0x9d}},
}

// DetectCompression reads the first bytes of r and matches them against known
// compression signatures. Short inputs are treated as uncompressed.
func DetectCompression(r io.Reader) (Compression, error) {
	head := make([]byte, 6)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return CompressionUnknown, err
	}
	head = head[:n]

Outer:
	for _, s := range signatures {
		if len(head) < len(s.sig) {
			continue
		}
		for i := range s.sig {
			if head[i] != s.sig[i] {
				continue Outer
			}
		}
		return s.c, nil
	}

	return CompressionNone, nil
}

// OpenMaybeCompressed opens path and, if its content is compressed, returns a
// reader over the decompressed stream. Closing the result closes the file.
func OpenMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	r, err := maybeDecompress(f)
	if err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	return r, nil
}

func maybeDecompress(f *os.File) (io.ReadCloser, error) {
	c, err := DetectCompression(f)
	if err != nil {
		return nil, err
	}

	// Decompressors read their headers on construction, so rewind first.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var r io.Reader
	switch c {
	case CompressionGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		return &stackedCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case CompressionZ:
		z, err := zlib.NewReader(f)
		if err != nil {
			return nil, err
		}
		return &stackedCloser{Reader: z, closers: []io.Closer{z, f}}, nil
	case CompressionZip:
		zr := zipstream.NewReader(f)
		// Position the stream at the first archived file.
		if _, err := zr.Next(); err != nil {
			return nil, fmt.Errorf("opening first entry of zip archive: %w", err)
		}
		r = zr
	case CompressionBZip2:
		r = bzip2.NewReader(f)
	case CompressionXZ:
		if r, err = xz.NewReader(f, 0); err != nil {
			return nil, err
		}
	default:
		return f, nil
	}

	return &stackedCloser{Reader: r, closers: []io.Closer{f}}, nil
}

// stackedCloser closes a decompressor and the file beneath it.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
