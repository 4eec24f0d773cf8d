// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	ids := []Id{
		ModuleNotFoundId,
		ModuleParseErrorId,
		ArtifactUnavailableId,
		ResolutionFailedId,
		ReleaseOrderViolationId,
		ConfigLoadFailedId,
		BuildFailedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if ModuleNotFoundId != 1 {
		t.Errorf("ModuleNotFoundId = %d, want 1", ModuleNotFoundId)
	}
}

func TestGet_AllIdsResolve(t *testing.T) {
	for _, id := range []Id{
		ModuleNotFoundId,
		ModuleParseErrorId,
		ArtifactUnavailableId,
		ResolutionFailedId,
		ReleaseOrderViolationId,
		ConfigLoadFailedId,
		BuildFailedId,
	} {
		issue := Get(id)
		if issue == nil {
			t.Errorf("Get(%d) returned nil", id)
			continue
		}
		if issue.Id() != id {
			t.Errorf("Get(%d).Id() = %d", id, issue.Id())
		}
		if issue.MarkdownMsg() == "" {
			t.Errorf("Get(%d) has empty markdown message", id)
		}
	}
}

func TestValues_CoversRegistry(t *testing.T) {
	values := Values()
	if len(values) != len(issues) {
		t.Errorf("Values() returned %d issues, want %d", len(values), len(issues))
	}
}

func TestIssue_MarkdownMsg(t *testing.T) {
	issue := Get(ArtifactUnavailableId)
	if issue == nil {
		t.Fatal("Get(ArtifactUnavailableId) returned nil")
	}
	if !strings.Contains(string(issue.MarkdownMsg()), "missing or stale") {
		t.Error("MarkdownMsg() should mention missing or stale artifacts")
	}
}

func TestIssue_Render(t *testing.T) {
	original := render
	defer func() { render = original }()

	var rendered string
	render = func(in, stylePath string) (string, error) {
		rendered = in
		return in, nil
	}

	issue := Get(ReleaseOrderViolationId)
	out, err := issue.Render("dark")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out == "" || rendered == "" {
		t.Error("Render produced no output")
	}
	if !strings.Contains(rendered, "out of order") {
		t.Error("rendered message should mention release order")
	}
}
