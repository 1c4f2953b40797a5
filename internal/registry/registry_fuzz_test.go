package registry

import (
	"slices"
	"strings"
	"testing"
)

// FuzzRegistryOperations replays a sequence of registrations and checks
// that the last value registered under each name is the one returned.
func FuzzRegistryOperations(f *testing.F) {
	f.Add("counter\x00menu\x00counter")
	f.Add("\x00\x00")
	f.Add("a b\x00a\x00A")
	f.Add("../../etc/passwd")

	f.Fuzz(func(t *testing.T, ops string) {
		if len(ops) > 5000 {
			t.Skip("operation data too large")
		}

		r := New[int]()
		ch := r.Watch()
		defer r.UnWatch(ch)

		want := make(map[string]int)
		names := strings.Split(ops, "\x00")
		for i, name := range names {
			r.Register(name, i)
			want[name] = i
		}

		if r.Count() != len(want) {
			t.Fatalf("Count() = %d, want %d", r.Count(), len(want))
		}
		for name, i := range want {
			got, ok := r.Get(name)
			if !ok || got != i {
				t.Errorf("Get(%q) = %d, %v; want %d", name, got, ok, i)
			}
		}
		if !slices.IsSorted(r.Names()) {
			t.Errorf("Names() not sorted: %q", r.Names())
		}

		registered := 0
		for range min(len(names), cap(ch)) {
			ev := <-ch
			if ev.Type == EventTypeRegistered {
				registered++
			}
		}
		if len(names) <= cap(ch) && registered != len(want) {
			t.Errorf("saw %d registered events, want %d", registered, len(want))
		}
	})
}
