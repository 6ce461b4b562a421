package utils

import (
	"reflect"
	"testing"
)

func TestContains(t *testing.T) {
	tests := []struct {
		slice    []string
		item     string
		expected bool
	}{
		{[]string{"AccessToken", "Session"}, "AccessToken", true},
		{[]string{"AccessToken"}, "accesstoken", false},
		{nil, "x", false},
		{[]string{}, "", false},
	}

	for _, tt := range tests {
		if got := Contains(tt.slice, tt.item); got != tt.expected {
			t.Errorf("Contains(%v, %q) = %v, expected %v", tt.slice, tt.item, got, tt.expected)
		}
	}
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]int{"zeta": 1, "alpha": 2, "mu": 3})
	want := []string{"alpha", "mu", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedKeys() = %v, want %v", got, want)
	}

	if got := SortedKeys(map[string]bool(nil)); len(got) != 0 {
		t.Errorf("SortedKeys(nil) = %v, want empty", got)
	}
}
