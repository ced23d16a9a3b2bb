package supermesh

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistry_AddIdempotent(t *testing.T) {
	r := NewRegistry()

	a := r.Add("wall")
	b := r.Add("door")
	if again := r.Add("wall"); again != a {
		t.Errorf("expected wall to keep id %d, got %d", a, again)
	}
	if a != 0 || b != 1 {
		t.Errorf("expected dense ids 0,1, got %d,%d", a, b)
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 names, got %d", r.Len())
	}

	if id, ok := r.Find("door"); !ok || id != b {
		t.Errorf("Find(door) = %d,%v", id, ok)
	}
	if _, ok := r.Find("roof"); ok {
		t.Error("Find should not insert")
	}
	if name, ok := r.Name(b); !ok || name != "door" {
		t.Errorf("Name(%d) = %q,%v", b, name, ok)
	}
	if _, ok := r.Name(7); ok {
		t.Error("Name should fail for unassigned id")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	const workers = 16
	const names = 500

	ids := make([][]uint32, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ids[w] = make([]uint32, names)
			// Each worker walks the names in a different order.
			for i := 0; i < names; i++ {
				n := (i + w*31) % names
				ids[w][n] = r.Add(fmt.Sprintf("obj-%d", n))
			}
		}(w)
	}
	wg.Wait()

	if r.Len() != names {
		t.Fatalf("expected %d names, got %d", names, r.Len())
	}

	seen := make(map[uint32]bool, names)
	for n := 0; n < names; n++ {
		id := ids[0][n]
		for w := 1; w < workers; w++ {
			if ids[w][n] != id {
				t.Fatalf("obj-%d: worker %d got %d, worker 0 got %d", n, w, ids[w][n], id)
			}
		}
		if id >= names {
			t.Errorf("id %d is not dense", id)
		}
		if seen[id] {
			t.Errorf("id %d assigned twice", id)
		}
		seen[id] = true
	}

	all := r.Names()
	for id, name := range all {
		if got, _ := r.Find(name); got != uint32(id) {
			t.Errorf("Names()[%d] = %s maps back to %d", id, name, got)
		}
	}
}
