package astdb

import (
	"reflect"
	"sort"
	"testing"
)

func TestNaturalLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"2000|a", "27000|b", true},
		{"27000|b", "2000|a", false},
		{"node2", "node10", true},
		{"node10", "node2", false},
		{"abc", "abd", true},
		{"abc", "abc", false},
		{"ab", "abc", true},
		{"007", "7", false},
		{"7", "007", true},
		{"x99999999999999999999999", "x100000000000000000000000", true},
	}

	for _, tc := range cases {
		if got := naturalLess(tc.a, tc.b); got != tc.want {
			t.Errorf("naturalLess(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestNaturalSortNodeLines(t *testing.T) {
	lines := []string{
		"29999|W1AW|Newington CT|",
		"2001|K1ABC|Boston MA|",
		"1999|N0CALL|Private|",
		"40000|VE3XYZ|Toronto ON|",
	}
	sort.SliceStable(lines, func(i, j int) bool { return naturalLess(lines[i], lines[j]) })

	want := []string{
		"1999|N0CALL|Private|",
		"2001|K1ABC|Boston MA|",
		"29999|W1AW|Newington CT|",
		"40000|VE3XYZ|Toronto ON|",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("sorted = %v, want %v", lines, want)
	}
}
