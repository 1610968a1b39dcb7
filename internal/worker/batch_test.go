package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/mediator/internal/model"
)

// mockMediator records domains and fails on request
type mockMediator struct {
	failDomain string
}

func (m *mockMediator) Mediate(ctx context.Context, input model.MediationInput) (*model.MediationResult, error) {
	if input.Domain == m.failDomain {
		return nil, model.ErrTooFewPositions
	}
	return &model.MediationResult{Canon: model.CanonArtifact{Domain: input.Domain, Status: model.StatusFrozen}}, nil
}

func writeInput(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestBatchProcessor_ProcessDir(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "b.json", `{"domain":"beta","positions":[]}`)
	writeInput(t, dir, "a.json", `{"domain":"alpha","positions":[]}`)
	writeInput(t, dir, "c.json", `{"domain":"broken"}`)
	writeInput(t, dir, "notes.txt", `ignored`)

	b := NewBatchProcessor(&mockMediator{failDomain: "broken"}, 2)
	results, err := b.ProcessDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDir failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Result == nil || results[0].Result.Canon.Domain != "alpha" {
		t.Errorf("expected alpha first, got %+v", results[0])
	}
	if results[1].Result == nil || results[1].Result.Canon.Domain != "beta" {
		t.Errorf("expected beta second, got %+v", results[1])
	}
	if !errors.Is(results[2].GetError(), model.ErrTooFewPositions) {
		t.Errorf("expected ErrTooFewPositions for broken input, got %v", results[2].GetError())
	}
}

func TestBatchProcessor_WaitsOnAgentLimits(t *testing.T) {
	dir := t.TempDir()
	slow := writeInput(t, dir, "slow.json", `{"domain":"slow","positions":[{"agent":"agent-slow","claims":["X"]},{"agent":"agent-b","claims":["X"]}]}`)
	fast := writeInput(t, dir, "fast.json", `{"domain":"fast","positions":[{"agent":"agent-a","claims":["X"]},{"agent":"agent-b","claims":["X"]}]}`)

	limiter := NewLimiter(0, 5)
	limiter.SetAgentRate("agent-slow", 0.001, 1)
	_ = limiter.Check("agent-slow")

	// The next token for agent-slow is far beyond the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := NewBatchProcessor(&mockMediator{}, 2).WithLimiter(limiter).ProcessFiles(ctx, []string{slow, fast})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected throttled input to fail within the deadline")
	}
	if results[1].Error != nil || results[1].Result.Canon.Domain != "fast" {
		t.Errorf("expected unthrottled input to mediate, got %+v", results[1])
	}
}

func TestBatchProcessor_InvalidJSON(t *testing.T) {
	path := writeInput(t, t.TempDir(), "bad.json", `{not json`)

	results := NewBatchProcessor(&mockMediator{}, 1).ProcessFiles(context.Background(), []string{path})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !errors.Is(results[0].Error, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", results[0].Error)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	results := NewBatchProcessor(&mockMediator{}, 2).ProcessFiles(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestListInputFiles_MissingDir(t *testing.T) {
	if _, err := ListInputFiles(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestReadInput(t *testing.T) {
	path := writeInput(t, t.TempDir(), "in.json", `{
  "type": "A",
  "domain": "custody obligation",
  "scope_boundary": "Cross-border transport",
  "positions": [
    {"agent": "a", "claims": ["X", "Y"]},
    {"agent": "b", "claims": ["X", "Z"]}
  ]
}`)

	input, err := ReadInput(path)
	if err != nil {
		t.Fatalf("ReadInput failed: %v", err)
	}
	if input.Domain != "custody obligation" || input.Type != "A" {
		t.Errorf("unexpected input %+v", input)
	}
	if input.ScopeBoundary != "Cross-border transport" {
		t.Errorf("expected embedded declarations to decode, got %q", input.ScopeBoundary)
	}
	if len(input.Positions) != 2 {
		t.Errorf("expected 2 positions, got %d", len(input.Positions))
	}
}
