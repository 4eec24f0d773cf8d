// SPDX-License-Identifier: MPL-2.0

package sympath

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		segments []string
	}{
		{
			name:     "single segment",
			input:    "calc",
			segments: []string{"calc"},
		},
		{
			name:     "module and attribute",
			input:    "calc.add",
			segments: []string{"calc", "add"},
		},
		{
			name:     "deep chain",
			input:    "pkg.mod.Class.attr",
			segments: []string{"pkg", "mod", "Class", "attr"},
		},
		{
			name:     "underscores and digits",
			input:    "_hidden.v2",
			segments: []string{"_hidden", "v2"},
		},
		{
			name:    "empty path",
			input:   "",
			wantErr: true,
		},
		{
			name:    "empty segment",
			input:   "calc..add",
			wantErr: true,
		},
		{
			name:    "trailing dot",
			input:   "calc.",
			wantErr: true,
		},
		{
			name:    "leading digit",
			input:   "calc.2fast",
			wantErr: true,
		},
		{
			name:    "illegal character",
			input:   "calc.add-fast",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) succeeded, want error", tt.input)
				}
				var invalid *InvalidPathError
				if !errors.As(err, &invalid) {
					t.Fatalf("Parse(%q) error = %v, want *InvalidPathError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if got := p.Segments(); !reflect.DeepEqual(got, tt.segments) {
				t.Errorf("Segments() = %v, want %v", got, tt.segments)
			}
			if p.String() != tt.input {
				t.Errorf("String() = %q, want %q", p.String(), tt.input)
			}
		})
	}
}

func TestPrefixAndTail(t *testing.T) {
	p := MustParse("a.b.c.d")

	if got := p.Prefix(1); got != "a" {
		t.Errorf("Prefix(1) = %q, want %q", got, "a")
	}
	if got := p.Prefix(3); got != "a.b.c" {
		t.Errorf("Prefix(3) = %q, want %q", got, "a.b.c")
	}
	if got := p.Tail(3); !reflect.DeepEqual(got, []string{"d"}) {
		t.Errorf("Tail(3) = %v, want [d]", got)
	}
	if got := p.Tail(1); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("Tail(1) = %v, want [b c d]", got)
	}
	if p.Len() != 4 {
		t.Errorf("Len() = %d, want 4", p.Len())
	}
}

func TestSegmentsIsCopy(t *testing.T) {
	p := MustParse("a.b")
	segs := p.Segments()
	segs[0] = "mutated"
	if got := p.Prefix(1); got != "a" {
		t.Errorf("mutating Segments() result leaked into Path: Prefix(1) = %q", got)
	}
}
