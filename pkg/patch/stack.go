// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"modswap/pkg/registry"
	"modswap/pkg/sympath"
)

// Record is one applied patch: the resolved owner/attribute pair, the
// original state as a tagged present/absent value, and the replacement.
// Records are immutable once created and exclusively owned by the stack
// entry that created them.
type Record struct {
	path sympath.Path
	// owner is the table whose attribute was replaced.
	owner map[string]any
	attr  string
	// hadAttribute tags the original state: when false, restoration deletes
	// the attribute instead of reassigning, so patching a previously-absent
	// attribute leaves no phantom behind. A tagged pair is used rather than
	// a sentinel value so that sentinel-like replacements stay legitimate.
	hadAttribute bool
	original     any
	replacement  any
	// seq is the monotonic application order index.
	seq uint64
}

// Path returns the dotted path the record was applied at.
func (r *Record) Path() string { return r.path.String() }

// Handle is the opaque scoped-acquisition token returned by Apply.
type Handle struct {
	rec *Record
}

// Stack records applied patches in application order and restores them in
// strict reverse (LIFO) order per owner/attribute pair. Like the registry it
// serves, a Stack has no internal locking: a single logical thread of
// control must own it at a time.
type Stack struct {
	reg     *registry.Registry
	records []*Record
	nextSeq uint64
}

// NewStack creates a patch stack resolving through reg.
func NewStack(reg *registry.Registry) *Stack {
	return &Stack{reg: reg}
}

// Apply installs replacement at path and returns a handle whose release
// restores exactly the prior state. Each call produces an independent
// record, even for repeated patches of the same attribute.
func (s *Stack) Apply(pathStr string, replacement any) (*Handle, error) {
	p, err := sympath.Parse(pathStr)
	if err != nil {
		return nil, err
	}
	res, err := Resolve(s.reg, p)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		path:         p,
		owner:        res.Owner,
		attr:         res.Attr,
		hadAttribute: res.Present,
		original:     res.Value,
		replacement:  replacement,
		seq:          s.nextSeq,
	}
	s.nextSeq++

	res.Owner[res.Attr] = replacement
	s.records = append(s.records, rec)
	slog.Debug("patch applied", "path", pathStr, "seq", rec.seq, "existed", rec.hadAttribute)
	return &Handle{rec: rec}, nil
}

// Release restores the record behind h. The record must be on top of its
// owner-scoped sub-stack — patches on unrelated owner/attribute pairs may
// interleave freely, but overlapping patches must be peeled off in reverse
// application order. An out-of-order release fails with *StackOrderError
// before mutating anything.
func (s *Stack) Release(h *Handle) error {
	if h == nil || h.rec == nil {
		return fmt.Errorf("release of nil patch handle")
	}
	rec := h.rec

	idx := slices.Index(s.records, rec)
	if idx < 0 {
		return &StackOrderError{Requested: rec.path.String()}
	}
	for i := len(s.records) - 1; i > idx; i-- {
		later := s.records[i]
		if later.attr == rec.attr && sameTable(later.owner, rec.owner) {
			return &StackOrderError{
				Requested: rec.path.String(),
				Expected:  later.path.String(),
			}
		}
	}

	if rec.hadAttribute {
		rec.owner[rec.attr] = rec.original
	} else {
		delete(rec.owner, rec.attr)
	}
	s.records = slices.Delete(s.records, idx, idx+1)
	h.rec = nil
	slog.Debug("patch released", "path", rec.path.String(), "seq", rec.seq)
	return nil
}

// ReleaseAll restores every remaining record in reverse application order.
// Intended for scope teardown after a partial failure.
func (s *Stack) ReleaseAll() error {
	var firstErr error
	for len(s.records) > 0 {
		rec := s.records[len(s.records)-1]
		if err := s.Release(&Handle{rec: rec}); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Len returns the number of currently applied patches.
func (s *Stack) Len() int { return len(s.records) }

// sameTable reports whether two owner tables are the same map identity.
func sameTable(a, b map[string]any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
