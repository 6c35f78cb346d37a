package taxonomy

import (
	"reflect"
	"testing"
)

func TestFitAssignsKeysInFirstOccurrenceOrder(t *testing.T) {
	tax := Fit([]string{"area-System.Net", "area-System.Data", "area-System.Net", "area-Meta"})

	if tax.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tax.Len())
	}
	want := []string{"area-System.Net", "area-System.Data", "area-Meta"}
	if got := tax.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}

	for i, v := range want {
		key, ok := tax.Key(v)
		if !ok || key != i {
			t.Errorf("Key(%q) = %d, %v; want %d, true", v, key, ok, i)
		}
		back, ok := tax.Value(i)
		if !ok || back != v {
			t.Errorf("Value(%d) = %q, %v; want %q, true", i, back, ok, v)
		}
	}
}

func TestUnknownValues(t *testing.T) {
	tax := Fit([]string{"a", "b"})

	if _, ok := tax.Key("c"); ok {
		t.Error("Key(c) should be unknown")
	}
	for _, key := range []int{-1, 2, 100} {
		if _, ok := tax.Value(key); ok {
			t.Errorf("Value(%d) should be unknown", key)
		}
	}
}

func TestValuesIsACopy(t *testing.T) {
	tax := Fit([]string{"a", "b"})
	vals := tax.Values()
	vals[0] = "mutated"
	if v, _ := tax.Value(0); v != "a" {
		t.Errorf("Value(0) = %q after mutating Values(), want a", v)
	}
}

func TestFromValuesRoundTrip(t *testing.T) {
	orig := Fit([]string{"x", "y", "x", "z"})
	rebuilt := FromValues(orig.Values())
	if !reflect.DeepEqual(orig.Values(), rebuilt.Values()) {
		t.Errorf("rebuilt = %v, want %v", rebuilt.Values(), orig.Values())
	}
}

func TestEmpty(t *testing.T) {
	tax := Fit(nil)
	if tax.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tax.Len())
	}
}
