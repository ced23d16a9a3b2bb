// Package src decodes SRC mesh-interchange containers: a fixed preamble, an
// embedded JSON header describing views, buffer views, chunks and meshes,
// and a (possibly zlib-compressed) binary payload.
//
// Layout, all words little-endian:
//
//	[u32 magic][u32 version][u32 headerLen][headerLen bytes JSON]
//	[u32 uncompressedSize, only when magic == MagicCompressed]
//	[payload]
package src

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	// MagicUncompressed marks a container whose payload is stored raw.
	MagicUncompressed uint32 = 23
	// MagicCompressed marks a container whose payload is a zlib stream.
	MagicCompressed uint32 = 24
	// SupportedVersion is the only format version this decoder accepts.
	SupportedVersion uint32 = 42

	// PreambleSize is the byte length of the three preamble words.
	PreambleSize = 12

	// MaxUncompressedSize bounds the allocation made for a compressed payload.
	MaxUncompressedSize = 1 << 30
)

// Preamble holds the three leading words of a container.
type Preamble struct {
	Magic        uint32
	Version      uint32
	HeaderLength uint32
}

// Compressed reports whether the payload is zlib-compressed.
func (p Preamble) Compressed() bool {
	return p.Magic == MagicCompressed
}

// ReadPreamble reads and validates the preamble at the start of data.
func ReadPreamble(data []byte) (Preamble, error) {
	if len(data) < PreambleSize {
		return Preamble{}, errors.Wrapf(ErrFormatViolation,
			"truncated preamble: %d bytes, expected at least %d", len(data), PreambleSize)
	}

	var p Preamble
	if err := binary.Read(bytes.NewReader(data[:PreambleSize]), binary.LittleEndian, &p); err != nil {
		return Preamble{}, errors.Wrapf(ErrFormatViolation, "reading preamble: %v", err)
	}

	if p.Magic != MagicUncompressed && p.Magic != MagicCompressed {
		return p, errors.Wrapf(ErrFormatViolation,
			"magic %d, expected %d or %d", p.Magic, MagicUncompressed, MagicCompressed)
	}
	if p.Version != SupportedVersion {
		return p, errors.Wrapf(ErrFormatViolation,
			"version %d, expected %d", p.Version, SupportedVersion)
	}
	if uint64(p.HeaderLength) > uint64(len(data)-PreambleSize) {
		return p, errors.Wrapf(ErrFormatViolation,
			"header length %d exceeds the %d bytes after the preamble", p.HeaderLength, len(data)-PreambleSize)
	}

	return p, nil
}

// File is a container whose preamble and header have been validated and whose
// payload is ready for chunk resolution.
type File struct {
	Preamble Preamble
	Header   *Header

	// UncompressedSize is the payload size after decompression, or the raw
	// payload size for uncompressed containers.
	UncompressedSize int

	payload Region
}

// Parse validates the preamble, extracts the header and prepares the payload,
// decompressing it when the magic says so. Any error here is fatal to the
// asset; no partial File is returned.
func Parse(data []byte) (*File, error) {
	p, err := ReadPreamble(data)
	if err != nil {
		return nil, err
	}

	headerEnd := PreambleSize + int(p.HeaderLength)
	header, err := parseHeader(data[PreambleSize:headerEnd])
	if err != nil {
		return nil, err
	}

	f := &File{
		Preamble: p,
		Header:   header,
	}

	rest := data[headerEnd:]
	if !p.Compressed() {
		f.payload = NewRegion(rest)
		f.UncompressedSize = len(rest)
		return f, nil
	}

	payload, err := decompress(rest)
	if err != nil {
		return nil, err
	}
	f.payload = NewRegion(payload)
	f.UncompressedSize = len(payload)
	return f, nil
}

// Payload returns the payload region chunk offsets are relative to.
func (f *File) Payload() Region {
	return f.payload
}

// decompress reads the leading uncompressed-size word and inflates the zlib
// stream that follows into a buffer of exactly that size.
func decompress(rest []byte) ([]byte, error) {
	if len(rest) < 4 {
		return nil, errors.Wrapf(ErrFormatViolation,
			"missing uncompressed size: %d bytes after header", len(rest))
	}

	size := binary.LittleEndian.Uint32(rest)
	if size > MaxUncompressedSize {
		return nil, errors.Wrapf(ErrFormatViolation,
			"uncompressed size %d exceeds limit %d", size, MaxUncompressedSize)
	}

	reader, err := zlib.NewReader(bytes.NewReader(rest[4:]))
	if err != nil {
		return nil, errors.Wrapf(ErrDecompression, "opening zlib stream: %v", err)
	}
	defer reader.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, errors.Wrapf(ErrDecompression, "inflating %d bytes: %v", size, err)
	}

	return out, nil
}
