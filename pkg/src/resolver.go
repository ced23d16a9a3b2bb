package src

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// indexSize is the width of a stored index; indices are widened to uint32.
const indexSize = 2

// chunkFor locates the single chunk backing a buffer view.
func (f *File) chunkFor(bufferView string) (Region, error) {
	bv, ok := f.Header.BufferViews[bufferView]
	if !ok {
		return Region{}, errors.Wrapf(ErrChunkLayout, "unknown bufferView %q", bufferView)
	}
	if len(bv.Chunks) != 1 {
		return Region{}, errors.Wrapf(ErrChunkLayout,
			"bufferView %q has %d chunks, only one chunk per bufferView is supported", bufferView, len(bv.Chunks))
	}

	chunk, ok := f.Header.BufferChunks[bv.Chunks[0]]
	if !ok {
		return Region{}, errors.Wrapf(ErrChunkLayout, "unknown bufferChunk %q", bv.Chunks[0])
	}

	region, err := f.payload.Chunk(chunk)
	if err != nil {
		return Region{}, errors.Wrapf(err, "bufferChunk %q", bv.Chunks[0])
	}
	return region, nil
}

// ResolveIndices returns the triangle indices of an index view, widened from
// uint16 to uint32.
func (f *File) ResolveIndices(viewName string) ([]uint32, error) {
	view, ok := f.Header.Accessors.IndexViews[viewName]
	if !ok {
		return nil, errors.Wrapf(ErrChunkLayout, "unknown index view %q", viewName)
	}

	chunk, err := f.chunkFor(view.BufferView)
	if err != nil {
		return nil, errors.Wrapf(err, "index view %q", viewName)
	}

	region, err := chunk.View(view.ByteOffset, indexSize, view.Count)
	if err != nil {
		return nil, errors.Wrapf(err, "index view %q", viewName)
	}

	data := region.Bytes()
	indices := make([]uint32, view.Count)
	for i := range indices {
		indices[i] = uint32(binary.LittleEndian.Uint16(data[i*indexSize:]))
	}
	return indices, nil
}

// ResolveAttribute copies an attribute view into a slice of T. The declared
// stride must equal the encoded size of T; no component conversion is done.
func ResolveAttribute[T any](f *File, viewName string) ([]T, error) {
	view, ok := f.Header.Accessors.AttributeViews[viewName]
	if !ok {
		return nil, errors.Wrapf(ErrChunkLayout, "unknown attribute view %q", viewName)
	}

	var zero T
	size := binary.Size(zero)
	if size <= 0 {
		return nil, errors.Errorf("attribute view %q: %T is not a fixed-size type", viewName, zero)
	}
	if view.ByteStride != size {
		return nil, errors.Wrapf(ErrChunkLayout,
			"attribute view %q: byte stride %d does not match element size %d", viewName, view.ByteStride, size)
	}

	chunk, err := f.chunkFor(view.BufferView)
	if err != nil {
		return nil, errors.Wrapf(err, "attribute view %q", viewName)
	}

	region, err := chunk.View(view.ByteOffset, view.ByteStride, view.Count)
	if err != nil {
		return nil, errors.Wrapf(err, "attribute view %q", viewName)
	}

	out := make([]T, view.Count)
	if err := binary.Read(bytes.NewReader(region.Bytes()), binary.LittleEndian, out); err != nil {
		return nil, errors.Wrapf(ErrChunkLayout, "attribute view %q: %v", viewName, err)
	}
	return out, nil
}
