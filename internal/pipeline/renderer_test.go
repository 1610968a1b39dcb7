package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/mediator/internal/extract"
	"github.com/ppiankov/mediator/internal/model"
)

func frozenArtifact() model.CanonArtifact {
	return model.CanonArtifact{
		Domain:     "Custody / Obligation: Transport",
		Status:     model.StatusFrozen,
		Timestamp:  "2026-01-04T12:00:00.000000000Z",
		Invariants: []string{"Custody during transport creates the compliance obligation."},
		CmpDOI:     model.ProtocolDOI,
		Hash:       "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
	}
}

func TestCanonDocument_ParsesBack(t *testing.T) {
	doc := CanonDocument(frozenArtifact(), completeDeclarations())

	entry := extract.NewCanonParser(nil).Parse("doc", doc)
	if entry.Name != "Custody / Obligation: Transport" {
		t.Errorf("Expected domain as name, got %q", entry.Name)
	}
	if entry.Status != "FROZEN" {
		t.Errorf("Expected FROZEN, got %q", entry.Status)
	}
	if entry.DOI != model.ProtocolDOI {
		t.Errorf("Expected DOI %s, got %q", model.ProtocolDOI, entry.DOI)
	}
	if entry.Scope != "Cross-border movement of regulated goods" {
		t.Errorf("Unexpected scope %q", entry.Scope)
	}
	if len(entry.Invariants) != 1 {
		t.Errorf("Expected 1 invariant, got %v", entry.Invariants)
	}
}

func TestCanonDocument_MissingDeclarationDoesNotLeak(t *testing.T) {
	d := completeDeclarations()
	d.FiduciaryMoment = ""

	entry := extract.NewCanonParser(nil).Parse("doc", CanonDocument(frozenArtifact(), d))
	if entry.Fiduciary != "Not declared" {
		t.Errorf("Expected placeholder fiduciary, got %q", entry.Fiduciary)
	}
}

func TestCanonFileName(t *testing.T) {
	name := CanonFileName(frozenArtifact())
	if name != "custody-obligation-transport_0123456789ab.md" {
		t.Errorf("Unexpected file name %q", name)
	}
	if !extract.IsCanonDocument(name) {
		t.Error("Expected file name to be indexable")
	}
}

func TestRenderer_WriteCanonDocument(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir)

	path, err := r.WriteCanonDocument(frozenArtifact(), completeDeclarations())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("Expected document in %s, got %s", dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "## The Invariant") {
		t.Error("Expected invariant section")
	}

	draft := frozenArtifact()
	draft.Status = model.StatusDraft
	if _, err := r.WriteCanonDocument(draft, completeDeclarations()); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for draft, got %v", err)
	}
}

func TestRenderer_RenderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	if err := NewRenderer("").RenderJSON(map[string]string{"status": "FROZEN"}, path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"status": "FROZEN"`) {
		t.Errorf("Unexpected JSON %s", data)
	}
}
