package math

import (
	"testing"
)

func TestVec2Add(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	got := a.Add(b)
	want := Vec2{4, 6}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	got := v.Length()
	want := float32(7)
	if got != want {
		t.Errorf("Vec3.Length() = %v, want %v", got, want)
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, 5, -2}
	b := Vec3{3, -1, 0}
	if got, want := a.Min(b), (Vec3{1, -1, -2}); got != want {
		t.Errorf("Vec3.Min() = %v, want %v", got, want)
	}
	if got, want := a.Max(b), (Vec3{3, 5, 0}); got != want {
		t.Errorf("Vec3.Max() = %v, want %v", got, want)
	}
}

func TestBoxOf(t *testing.T) {
	b := BoxOf([]Vec3{{1, 2, 3}, {-1, 0, 5}, {0, 4, -2}})
	if b.Min != (Vec3{-1, 0, -2}) || b.Max != (Vec3{1, 4, 5}) {
		t.Errorf("BoxOf() = %+v", b)
	}
	if got := b.Size(); got != (Vec3{2, 4, 7}) {
		t.Errorf("Box.Size() = %v", got)
	}
}

func TestEmptyBox(t *testing.T) {
	b := EmptyBox()
	if !b.IsEmpty() {
		t.Fatal("EmptyBox() should be empty")
	}
	if got := BoxOf(nil); !got.IsEmpty() {
		t.Error("BoxOf(nil) should be empty")
	}

	other := Box{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	if got := b.Union(other); got != other {
		t.Errorf("empty.Union(other) = %+v, want %+v", got, other)
	}
	if got := other.Union(b); got != other {
		t.Errorf("other.Union(empty) = %+v, want %+v", got, other)
	}
}

func TestRemapAxes(t *testing.T) {
	v := Vec3{1, 2, 3}
	if got, want := RemapAxes(v), (Vec3{-1, 3, -2}); got != want {
		t.Errorf("RemapAxes(%v) = %v, want %v", v, got, want)
	}
}

func TestRemapAxesAlgebra(t *testing.T) {
	vectors := []Vec3{
		{1, 2, 3},
		{-4.5, 0, 7.25},
		{0, -1, 0},
	}
	for _, v := range vectors {
		twice := RemapAxes(RemapAxes(v))
		if want := (Vec3{v.X, -v.Y, -v.Z}); twice != want {
			t.Errorf("RemapAxes twice on %v = %v, want %v", v, twice, want)
		}

		four := RemapAxes(RemapAxes(twice))
		if four != v {
			t.Errorf("RemapAxes four times on %v = %v, want identity", v, four)
		}

		if got := UnremapAxes(RemapAxes(v)); got != v {
			t.Errorf("UnremapAxes(RemapAxes(%v)) = %v", v, got)
		}
		if got := RemapAxes(UnremapAxes(v)); got != v {
			t.Errorf("RemapAxes(UnremapAxes(%v)) = %v", v, got)
		}
	}
}

func TestRemapAxesPreservesLength(t *testing.T) {
	v := Vec3{3, 4, 12}
	if got := RemapAxes(v).Length(); got != v.Length() {
		t.Errorf("length changed: %v vs %v", got, v.Length())
	}
}

func TestRemapAxesSlice(t *testing.T) {
	vs := []Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	RemapAxesSlice(vs)
	want := []Vec3{{-1, 0, 0}, {0, 0, -1}, {0, 1, 0}}
	for i := range vs {
		if vs[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, vs[i], want[i])
		}
	}
}
