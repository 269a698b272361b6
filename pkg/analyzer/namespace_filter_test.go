package analyzer

import (
	"reflect"
	"testing"
)

func defaultFilter() NamespaceFilter {
	return NamespaceFilter{
		SystemPrefixes: []string{"kube-", "system-"},
	}
}

func TestFilterExcludesSystemNamespaces(t *testing.T) {
	input := []string{"default", "kube-system", "prod", "kube-public", "system-upgrade"}

	got := defaultFilter().Filter(input)

	want := []string{"default", "prod"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}
}

func TestFilterIncludeSystemOverride(t *testing.T) {
	f := defaultFilter()
	f.IncludeSystem = true

	input := []string{"default", "kube-system"}
	got := f.Filter(input)

	if !reflect.DeepEqual(got, input) {
		t.Errorf("Filter() with IncludeSystem = %v, want %v", got, input)
	}
}

func TestFilterExactExclusions(t *testing.T) {
	f := defaultFilter()
	f.Excluded = []string{"monitoring"}

	got := f.Filter([]string{"default", "monitoring", "prod"})

	want := []string{"default", "prod"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}
}

func TestFilterAllowlistMode(t *testing.T) {
	f := defaultFilter()
	f.Allowed = []string{"prod", "staging"}

	got := f.Filter([]string{"default", "prod", "staging", "dev", "kube-system"})

	want := []string{"prod", "staging"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	input := []string{"zeta", "alpha", "mid"}

	got := defaultFilter().Filter(input)

	if !reflect.DeepEqual(got, input) {
		t.Errorf("Filter() reordered input: %v", got)
	}
}

func TestFilterIdempotent(t *testing.T) {
	f := defaultFilter()
	f.Excluded = []string{"monitoring"}

	input := []string{"default", "kube-system", "monitoring", "prod"}
	once := f.Filter(input)
	twice := f.Filter(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Filter not idempotent: first %v, second %v", once, twice)
	}
}

func TestFilterEmptyInput(t *testing.T) {
	got := defaultFilter().Filter(nil)

	if len(got) != 0 {
		t.Errorf("Expected empty output for empty input, got %v", got)
	}
}

func TestFilterZeroValueKeepsEverything(t *testing.T) {
	var f NamespaceFilter

	input := []string{"default", "kube-system"}
	got := f.Filter(input)

	if !reflect.DeepEqual(got, input) {
		t.Errorf("Zero-value filter must keep everything, got %v", got)
	}
}
