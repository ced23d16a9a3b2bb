package src

import "github.com/pkg/errors"

// Region is a bounds-checked window onto the payload. It remembers its
// absolute offset so errors can name the payload position.
type Region struct {
	data   []byte
	offset int
}

// NewRegion wraps a byte slice as a region starting at offset 0.
func NewRegion(data []byte) Region {
	return Region{data: data}
}

// Len returns the number of bytes in the region.
func (r Region) Len() int {
	return len(r.data)
}

// Offset returns the absolute payload offset of the region start.
func (r Region) Offset() int {
	return r.offset
}

// Bytes returns the bytes of the region. The slice aliases the payload.
func (r Region) Bytes() []byte {
	return r.data
}

// Sub returns the sub-region [offset, offset+length). It fails with
// ErrChunkLayout instead of reading past either end.
func (r Region) Sub(offset, length int) (Region, error) {
	if offset < 0 || length < 0 || offset > len(r.data) || length > len(r.data)-offset {
		return Region{}, errors.Wrapf(ErrChunkLayout,
			"range [%d, %d) outside region of %d bytes at %d", offset, offset+length, len(r.data), r.offset)
	}
	return Region{
		data:   r.data[offset : offset+length : offset+length],
		offset: r.offset + offset,
	}, nil
}

// Chunk returns the region of a buffer chunk.
func (r Region) Chunk(c BufferChunk) (Region, error) {
	return r.Sub(c.ByteOffset, c.ByteLength)
}

// View returns the elements of a view inside this chunk region. The view must
// fill the chunk exactly: viewOffset + elemSize*count == chunk length.
func (r Region) View(viewOffset, elemSize, count int) (Region, error) {
	if elemSize <= 0 || count < 0 || viewOffset < 0 {
		return Region{}, errors.Wrapf(ErrChunkLayout,
			"invalid view (offset %d, element size %d, count %d)", viewOffset, elemSize, count)
	}
	if viewOffset+elemSize*count != len(r.data) {
		return Region{}, errors.Wrapf(ErrChunkLayout,
			"view offset %d + %d*%d does not match chunk length %d", viewOffset, elemSize, count, len(r.data))
	}
	return r.Sub(viewOffset, elemSize*count)
}
