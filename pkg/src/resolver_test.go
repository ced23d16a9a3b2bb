package src_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Faultbox/supermesh/internal/srctest"
	"github.com/Faultbox/supermesh/pkg/math"
	"github.com/Faultbox/supermesh/pkg/src"
)

func parseBuilt(t *testing.T, b *srctest.Builder) *src.File {
	t.Helper()
	f, err := src.Parse(b.Bytes(false))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return f
}

func TestResolveIndices_Widening(t *testing.T) {
	b := srctest.NewBuilder(t)
	b.Indices("idx", []uint16{0, 255, 256, 65535})
	f := parseBuilt(t, b)

	indices, err := f.ResolveIndices("idx")
	if err != nil {
		t.Fatalf("ResolveIndices failed: %v", err)
	}
	want := []uint32{0, 255, 256, 65535}
	for i := range want {
		if indices[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], indices[i])
		}
	}
}

func TestResolve_MultiChunkBufferView(t *testing.T) {
	b := triangle(t, false, false, false)
	b.Header().BufferViews["idx0"] = src.BufferView{Chunks: []string{"idx0", "pos0"}}
	b.Header().BufferViews["pos0"] = src.BufferView{Chunks: []string{"pos0", "idx0"}}
	f := parseBuilt(t, b)

	indices, err := f.ResolveIndices("idx0")
	if !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("expected ErrChunkLayout for indices, got %v", err)
	}
	if len(indices) != 0 {
		t.Errorf("expected empty indices, got %v", indices)
	}

	positions, err := src.ResolveAttribute[math.Vec3](f, "pos0")
	if !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("expected ErrChunkLayout for positions, got %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("expected empty positions, got %v", positions)
	}
}

func TestResolve_MultiChunkThroughDecode(t *testing.T) {
	b := triangle(t, false, false, false)
	b.Header().BufferViews["idx0"] = src.BufferView{Chunks: []string{"idx0", "pos0"}}

	asset, err := src.Decode(b.Bytes(false))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	mesh := asset.Meshes[0]
	if len(mesh.Indices) != 0 {
		t.Errorf("expected empty indices, got %v", mesh.Indices)
	}
	if len(mesh.Positions) != 3 {
		t.Errorf("expected positions to survive, got %d", len(mesh.Positions))
	}
}

func TestResolve_LengthMismatch(t *testing.T) {
	b := triangle(t, false, false, false)
	view := b.Header().Accessors.IndexViews["idx0"]
	view.Count = 4
	b.Header().Accessors.IndexViews["idx0"] = view

	attr := b.Header().Accessors.AttributeViews["pos0"]
	attr.ByteOffset = 12
	b.Header().Accessors.AttributeViews["pos0"] = attr
	f := parseBuilt(t, b)

	if _, err := f.ResolveIndices("idx0"); !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("expected ErrChunkLayout for indices, got %v", err)
	}
	if _, err := src.ResolveAttribute[math.Vec3](f, "pos0"); !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("expected ErrChunkLayout for positions, got %v", err)
	}
}

func TestResolve_ViewOffsetInsideChunk(t *testing.T) {
	b := srctest.NewBuilder(t)
	// 4 bytes of padding, then two uint16 indices; the chunk covers all 8 bytes.
	b.Chunk("idx", []byte{0xff, 0xff, 0xff, 0xff, 7, 0, 9, 0})
	b.Header().Accessors.IndexViews["idx"] = src.IndexView{BufferView: "idx", ByteOffset: 4, Count: 2}
	f := parseBuilt(t, b)

	indices, err := f.ResolveIndices("idx")
	if err != nil {
		t.Fatalf("ResolveIndices failed: %v", err)
	}
	if len(indices) != 2 || indices[0] != 7 || indices[1] != 9 {
		t.Errorf("unexpected indices %v", indices)
	}
}

func TestResolveAttribute_StrideMismatch(t *testing.T) {
	b := triangle(t, false, true, false)
	f := parseBuilt(t, b)

	if _, err := src.ResolveAttribute[math.Vec3](f, "uv0"); !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("expected ErrChunkLayout for VEC2 read as Vec3, got %v", err)
	}
	uvs, err := src.ResolveAttribute[math.Vec2](f, "uv0")
	if err != nil {
		t.Fatalf("ResolveAttribute failed: %v", err)
	}
	if len(uvs) != 3 || uvs[2] != (math.Vec2{X: 0, Y: 1}) {
		t.Errorf("unexpected uvs %v", uvs)
	}
}

func TestResolve_ChunkOutsidePayload(t *testing.T) {
	b := triangle(t, false, false, false)
	chunk := b.Header().BufferChunks["pos0"]
	chunk.ByteOffset += 1000
	b.Header().BufferChunks["pos0"] = chunk
	f := parseBuilt(t, b)

	if _, err := src.ResolveAttribute[math.Vec3](f, "pos0"); !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("expected ErrChunkLayout, got %v", err)
	}
}

func TestResolve_UnknownReferences(t *testing.T) {
	b := triangle(t, false, false, false)
	b.Header().Accessors.IndexViews["dangling"] = src.IndexView{BufferView: "nope", Count: 3}
	b.Header().BufferViews["orphan"] = src.BufferView{Chunks: []string{"missing"}}
	b.Header().Accessors.AttributeViews["orphanView"] = src.AttributeView{BufferView: "orphan", ByteStride: 4, Count: 1}
	f := parseBuilt(t, b)

	if _, err := f.ResolveIndices("missing-view"); !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("unknown view: got %v", err)
	}
	if _, err := f.ResolveIndices("dangling"); !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("unknown bufferView: got %v", err)
	}
	if _, err := src.ResolveAttribute[float32](f, "orphanView"); !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("unknown chunk: got %v", err)
	}
}

func TestRegion_Bounds(t *testing.T) {
	r := src.NewRegion(make([]byte, 16))

	sub, err := r.Sub(4, 8)
	if err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	if sub.Len() != 8 || sub.Offset() != 4 {
		t.Errorf("unexpected sub region len=%d offset=%d", sub.Len(), sub.Offset())
	}

	tests := []struct {
		offset, length int
	}{
		{-1, 4},
		{0, 17},
		{16, 1},
		{12, 5},
		{4, -1},
	}
	for _, tc := range tests {
		if _, err := r.Sub(tc.offset, tc.length); !errors.Is(err, src.ErrChunkLayout) {
			t.Errorf("Sub(%d, %d): expected ErrChunkLayout, got %v", tc.offset, tc.length, err)
		}
	}

	// A nested region cannot reach beyond its parent.
	if _, err := sub.Sub(4, 8); !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("nested Sub past end: expected ErrChunkLayout, got %v", err)
	}
}

func TestRegion_View(t *testing.T) {
	r := src.NewRegion(make([]byte, 14))

	if _, err := r.View(2, 4, 3); err != nil {
		t.Errorf("exact fit rejected: %v", err)
	}
	if _, err := r.View(0, 4, 3); !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("short view: expected ErrChunkLayout, got %v", err)
	}
	if _, err := r.View(0, 0, 3); !errors.Is(err, src.ErrChunkLayout) {
		t.Errorf("zero element size: expected ErrChunkLayout, got %v", err)
	}
}

func TestMeshTable_RoundTripOrder(t *testing.T) {
	b := srctest.NewBuilder(t)
	b.AddMesh("b", "i1", src.MeshAttributes{Position: "p1", ID: "d1"})
	b.AddMesh("a", "i2", src.MeshAttributes{Normal: "n2"})

	var h src.Header
	if err := json.Unmarshal(b.HeaderJSON(), &h); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(h.Meshes) != 2 || h.Meshes[0].Name != "b" || h.Meshes[1].Name != "a" {
		t.Fatalf("unexpected meshes %+v", h.Meshes)
	}
	if h.Meshes[0].Attributes.ID != "d1" || h.Meshes[1].Attributes.Normal != "n2" {
		t.Errorf("attributes lost: %+v", h.Meshes)
	}
}

func TestParse_NegativeChunk(t *testing.T) {
	b := triangle(t, false, false, false)
	b.Header().BufferChunks["pos0"] = src.BufferChunk{ByteOffset: -4, ByteLength: 8}

	if _, err := src.Parse(b.Bytes(false)); !errors.Is(err, src.ErrFormatViolation) {
		t.Errorf("expected ErrFormatViolation, got %v", err)
	}
}
