package registry

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/goplus/llman/manifest"
)

func req(name, origin string) manifest.Requirement {
	return manifest.Requirement{Name: name, Version: "1.0.0", Origin: origin}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	boost := &Recipe{Name: "boost", Versions: []string{"1.88.0"}}
	m := NewMemory(boost)

	got, err := m.Lookup(ctx, req("boost", ""))
	if err != nil || got != boost {
		t.Fatalf("Lookup(boost) = %v, %v", got, err)
	}
	if _, err := m.Lookup(ctx, req("zlib", "")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(zlib) error = %v, want ErrNotFound", err)
	}

	m.Add(&Recipe{Name: "zlib"})
	if _, err := m.Lookup(ctx, req("zlib", "")); err != nil {
		t.Errorf("Lookup after Add: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := m.Lookup(cancelled, req("boost", "")); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Lookup error = %v", err)
	}
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	center := NewMemory(&Recipe{Name: "boost", Versions: []string{"1.88.0"}})
	mirror := NewMemory(&Recipe{Name: "boost", Versions: []string{"1.89.0"}})
	m := &Multi{Default: center, Origins: map[string]Registry{"mirror": mirror}}

	r, err := m.Lookup(ctx, req("boost", ""))
	if err != nil || r.Versions[0] != "1.88.0" {
		t.Errorf("default origin: %v, %v", r, err)
	}
	r, err = m.Lookup(ctx, req("boost", "mirror"))
	if err != nil || r.Versions[0] != "1.89.0" {
		t.Errorf("mirror origin: %v, %v", r, err)
	}
	if _, err := m.Lookup(ctx, req("boost", "elsewhere")); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown origin error = %v, want ErrNotFound", err)
	}

	origins := &Multi{Origins: map[string]Registry{"mirror": mirror}}
	if _, err := origins.Lookup(ctx, req("boost", "")); !errors.Is(err, ErrNoRegistry) {
		t.Errorf("no default: %v, want ErrNoRegistry", err)
	}
	if r, err := origins.Lookup(ctx, req("boost", "mirror")); err != nil || r.Versions[0] != "1.89.0" {
		t.Errorf("mirror without default: %v, %v", r, err)
	}
}

func TestRecipeAllows(t *testing.T) {
	r := &Recipe{Options: map[string][]string{
		"shared":   {"true", "false"},
		"cxxflags": {AnyValue},
	}}
	tests := []struct {
		option string
		value  manifest.Value
		want   bool
	}{
		{"shared", manifest.BoolValue(true), true},
		{"shared", manifest.EnumValue("maybe"), false},
		{"cxxflags", manifest.StringValue("-O2 -g"), true},
		{"undeclared", manifest.EnumValue("x"), true},
	}
	for _, tt := range tests {
		if got := r.Allows(tt.option, tt.value); got != tt.want {
			t.Errorf("Allows(%s, %v) = %v, want %v", tt.option, tt.value, got, tt.want)
		}
	}

	r.Defaults = map[string]manifest.Value{
		"shared":         manifest.BoolValue(false),
		"header_only":    manifest.BoolValue(false),
		"without_python": manifest.BoolValue(true),
	}
	if got := r.DefaultNames(); !slices.Equal(got, []string{"header_only", "shared", "without_python"}) {
		t.Errorf("DefaultNames() = %v", got)
	}
}
