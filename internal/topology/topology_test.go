package topology

import (
	"reflect"
	"sort"
	"testing"
)

func TestDeriveStar(t *testing.T) {
	got := Derive(Star, []string{"n1", "n2", "n3"})

	if !reflect.DeepEqual(sortedCopy(got["n1"]), []string{"n2", "n3"}) {
		t.Fatalf("hub n1 neighbors = %v, want [n2 n3]", got["n1"])
	}
	if !reflect.DeepEqual(got["n2"], []string{"n1"}) {
		t.Fatalf("follower n2 neighbors = %v, want [n1]", got["n2"])
	}
	if !reflect.DeepEqual(got["n3"], []string{"n1"}) {
		t.Fatalf("follower n3 neighbors = %v, want [n1]", got["n3"])
	}
}

func TestDeriveFullMesh(t *testing.T) {
	got := Derive(FullMesh, []string{"n1", "n2", "n3"})

	for _, id := range []string{"n1", "n2", "n3"} {
		neighbors := sortedCopy(got[id])
		for _, other := range []string{"n1", "n2", "n3"} {
			if other == id {
				continue
			}
			if !contains(neighbors, other) {
				t.Fatalf("%s neighbors %v missing %s", id, neighbors, other)
			}
		}
		if contains(neighbors, id) {
			t.Fatalf("%s should not be its own neighbor", id)
		}
	}
}

func TestDeriveRing(t *testing.T) {
	got := Derive(Ring, []string{"n1", "n2", "n3"})

	if !reflect.DeepEqual(got["n1"], []string{"n2"}) {
		t.Fatalf("n1 -> %v, want [n2]", got["n1"])
	}
	if !reflect.DeepEqual(got["n2"], []string{"n3"}) {
		t.Fatalf("n2 -> %v, want [n3]", got["n2"])
	}
	if !reflect.DeepEqual(got["n3"], []string{"n1"}) {
		t.Fatalf("n3 -> %v, want [n1] (wraps around)", got["n3"])
	}
}

func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{
		"star":      Star,
		"full-mesh": FullMesh,
		"mesh":      FullMesh,
		"ring":      Ring,
	}
	for name, want := range cases {
		got, err := ParseStrategy(name)
		if err != nil {
			t.Fatalf("ParseStrategy(%q) error: %v", name, err)
		}
		if got != want {
			t.Fatalf("ParseStrategy(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseStrategy("bogus"); err == nil {
		t.Fatal("expected an error for an unknown strategy name")
	}
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
