package interval

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOverlapsWithGap(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		gap  int
		want bool
	}{
		{"shared point", New(0, 5), New(5, 9), 0, true},
		{"adjacent without gap", New(0, 4), New(5, 9), 0, false},
		{"adjacent with gap one", New(0, 4), New(5, 9), 1, true},
		{"separated beyond gap", New(0, 4), New(10, 12), 4, false},
		{"separated within gap", New(0, 4), New(10, 12), 6, true},
		{"containment", New(0, 20), New(5, 6), 0, true},
		{"argument order", New(10, 12), New(0, 4), 6, true},
		{"negative gap treated as zero", New(0, 4), New(4, 8), -3, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.a, tc.b, tc.gap); got != tc.want {
				t.Fatalf("Overlaps(%v, %v, %d) = %v, want %v", tc.a, tc.b, tc.gap, got, tc.want)
			}
		})
	}
}

func TestNewNormalizesOrder(t *testing.T) {
	got := New(9, 3)
	if got.Start != 3 || got.End != 9 {
		t.Fatalf("unexpected interval %v", got)
	}
	if got.Len() != 7 {
		t.Fatalf("expected length 7, got %d", got.Len())
	}
	if !got.Contains(3) || !got.Contains(9) || got.Contains(10) {
		t.Fatalf("containment broken for %v", got)
	}
	if !got.Encloses(New(4, 8)) || got.Encloses(New(2, 8)) {
		t.Fatalf("enclosure broken for %v", got)
	}
}

func TestMerge(t *testing.T) {
	if got := Merge(New(5, 9), New(0, 6)); got != New(0, 9) {
		t.Fatalf("unexpected merge %v", got)
	}
	if got := Merge(New(0, 1), New(8, 9)); got != New(0, 9) {
		t.Fatalf("non-contiguous merge should span both: %v", got)
	}
}

func TestUnion(t *testing.T) {
	input := []Interval{New(20, 25), New(0, 4), New(3, 8), New(11, 12), New(30, 30)}

	if diff := cmp.Diff([]Interval{New(0, 8), New(11, 12), New(20, 25), New(30, 30)}, Union(input, 0)); diff != "" {
		t.Fatalf("gap 0 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Interval{New(0, 12), New(20, 25), New(30, 30)}, Union(input, 3)); diff != "" {
		t.Fatalf("gap 3 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Interval{New(0, 30)}, Union(input, 10)); diff != "" {
		t.Fatalf("gap 10 mismatch (-want +got):\n%s", diff)
	}
	if input[0] != New(20, 25) {
		t.Fatal("Union must not reorder its input")
	}
}

func TestUnionEmpty(t *testing.T) {
	if got := Union(nil, 5); got != nil {
		t.Fatalf("expected nil union, got %v", got)
	}
}

func TestUnionIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 200; round++ {
		count := rng.IntN(12) + 1
		set := make([]Interval, 0, count)
		for i := 0; i < count; i++ {
			start := rng.IntN(200)
			set = append(set, New(start, start+rng.IntN(15)))
		}
		gap := rng.IntN(6)

		once := Union(set, gap)
		twice := Union(once, gap)
		if !slices.Equal(once, twice) {
			t.Fatalf("round %d: union not idempotent for gap %d\nonce:  %v\ntwice: %v", round, gap, once, twice)
		}
		for i := 1; i < len(once); i++ {
			if Overlaps(once[i-1], once[i], gap) {
				t.Fatalf("round %d: result still overlaps: %v %v", round, once[i-1], once[i])
			}
		}
	}
}
