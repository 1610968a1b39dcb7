package recall

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/mediator/internal/cache"
	"github.com/ppiankov/mediator/internal/extract"
	"github.com/ppiankov/mediator/internal/model"
)

const jurisdictionCanon = `# Flow-Triggered Jurisdiction
Status: FROZEN
DOI: 10.5281/zenodo.18732820

**Scope Boundary:** Governs regulated flows during physical movement.
**Fiduciary Moment:** The moment physical custody is exercised during movement.
**Evidence Standard:** Documented physical transfer of custody.

## The Invariant

Jurisdiction attaches to flows at the moment of movement.
Custody during transport creates the compliance obligation.
`

const draftCanon = `# Oracle Price Anchoring
Status: DRAFT

**Scope Boundary:** Price signals used to anchor settlement.
**Fiduciary Moment:** When the settlement price is committed.
**Evidence Standard:** Machine-readable exchange feeds.

## The Invariant

Settlement anchors to the committed oracle price.
`

func writeCanon(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("write canon: %v", err)
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	dir := t.TempDir()
	writeCanon(t, dir, "FTJ.md", jurisdictionCanon)
	writeCanon(t, dir, "Oracle.md", draftCanon)
	writeCanon(t, dir, "Validation_FTJ.md", jurisdictionCanon)
	writeCanon(t, dir, "notes.txt", "jurisdiction jurisdiction")
	return NewIndex(dir, nil)
}

func TestIndex_BuildSkipsNonCanonFiles(t *testing.T) {
	idx := newTestIndex(t)

	entries, err := idx.Entries(context.Background())
	if err != nil {
		t.Fatalf("Expected build to succeed, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	// Files are indexed in name order
	if entries[0].File != "FTJ" || entries[1].File != "Oracle" {
		t.Errorf("Expected [FTJ Oracle], got [%s %s]", entries[0].File, entries[1].File)
	}
}

func TestIndex_MissingDirIsEmpty(t *testing.T) {
	idx := NewIndex(filepath.Join(t.TempDir(), "absent"), nil)

	report, err := idx.Recall(context.Background(), "custody obligation", nil, 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(report.Matches) != 0 {
		t.Errorf("Expected no matches, got %d", len(report.Matches))
	}
	if report.CanonicalDebtRisk {
		t.Error("Expected no debt risk on empty index")
	}
	if report.DebtRiskMessage != "No overlapping frozen canons detected." {
		t.Errorf("Unexpected message: %q", report.DebtRiskMessage)
	}
}

func TestRecall_FrozenMatchRaisesDebtRisk(t *testing.T) {
	idx := newTestIndex(t)

	report, err := idx.Recall(context.Background(),
		"regulatory jurisdiction over agent data flows",
		[]string{"jurisdiction attaches at movement", "custody creates obligation"}, 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.Schema != model.RecallSchema {
		t.Errorf("Expected schema %s, got %s", model.RecallSchema, report.Schema)
	}
	if len(report.Matches) == 0 {
		t.Fatal("Expected at least one match")
	}
	top := report.Matches[0]
	if top.Canon != "Flow-Triggered Jurisdiction" {
		t.Errorf("Expected top match Flow-Triggered Jurisdiction, got %q", top.Canon)
	}
	if !report.CanonicalDebtRisk {
		t.Error("Expected debt risk for frozen match")
	}
	if !strings.HasPrefix(report.DebtRiskMessage, "This domain overlaps with 1 frozen canon(s).") {
		t.Errorf("Unexpected message: %q", report.DebtRiskMessage)
	}
	if len(top.MatchedInvariants) == 0 || len(top.MatchedInvariants) > 2 {
		t.Errorf("Expected 1-2 matched invariants, got %v", top.MatchedInvariants)
	}
	for i := 1; i < len(report.Matches); i++ {
		if report.Matches[i].Score > report.Matches[i-1].Score {
			t.Error("Expected matches sorted by descending score")
		}
	}
}

func TestRecall_DraftOnlyHasNoDebtRisk(t *testing.T) {
	idx := newTestIndex(t)

	report, err := idx.Recall(context.Background(), "oracle settlement price", nil, 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(report.Matches) != 1 || report.Matches[0].Status != "DRAFT" {
		t.Fatalf("Expected a single DRAFT match, got %+v", report.Matches)
	}
	if report.CanonicalDebtRisk {
		t.Error("Expected no debt risk when only drafts match")
	}
}

func TestRecall_TopN(t *testing.T) {
	entries := make([]model.IndexEntry, 5)
	for i := range entries {
		entries[i] = model.IndexEntry{
			Name:   string(rune('A' + i)),
			Status: "DRAFT",
			TF:     map[string]int{"custody": i + 1},
		}
	}

	report := Rank(entries, extract.NewTermExtractor(nil), "custody", nil, 0)
	if len(report.Matches) != DefaultTopN {
		t.Fatalf("Expected %d matches, got %d", DefaultTopN, len(report.Matches))
	}
	if report.Matches[0].Canon != "E" {
		t.Errorf("Expected highest score first, got %s", report.Matches[0].Canon)
	}
}

func TestScore(t *testing.T) {
	terms := extract.NewTermExtractor(nil)
	entry := model.IndexEntry{
		Invariants: []string{"Jurisdiction attaches at movement"},
		TF:         map[string]int{"jurisdiction": 3, "custody": 3},
	}

	got := Score(entry, terms, []string{"jurisdiction", "movement"}, []string{"jurisdiction attaches at movement"})
	// 3*0.1 for jurisdiction, plus 2.0 once for the matching claim
	if got != 2.3 {
		t.Errorf("Expected score 2.3, got %v", got)
	}

	claims := []string{"jurisdiction attaches at movement", "escrow release", "movement of custody"}
	if got := Score(entry, terms, nil, claims); got != 4 {
		t.Errorf("Expected 2.0 per matching claim (4), got %v", got)
	}

	if got := Score(entry, terms, []string{"escrow"}, nil); got != 0 {
		t.Errorf("Expected zero score, got %v", got)
	}
}

func TestQueryTerms_DedupedInOrder(t *testing.T) {
	got := QueryTerms(extract.NewTermExtractor(nil), "custody custody transport", []string{"transport obligation"})
	want := []string{"custody", "transport", "obligation"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestIndex_InvalidatePicksUpNewCanon(t *testing.T) {
	dir := t.TempDir()
	idx := NewIndex(dir, nil, WithCache(cache.NewLayeredCache(time.Minute, t.TempDir(), time.Hour), time.Hour))

	entries, err := idx.Entries(context.Background())
	if err != nil || len(entries) != 0 {
		t.Fatalf("Expected empty index, got %d entries (err %v)", len(entries), err)
	}

	writeCanon(t, dir, "FTJ.md", jurisdictionCanon)

	entries, _ = idx.Entries(context.Background())
	if len(entries) != 0 {
		t.Error("Expected snapshot to stay unchanged until invalidated")
	}

	idx.Invalidate()
	entries, err = idx.Entries(context.Background())
	if err != nil {
		t.Fatalf("Expected rebuild to succeed, got %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry after invalidation, got %d", len(entries))
	}
}

func TestIndex_ConcurrentReadersDuringRebuild(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				if _, err := idx.Rebuild(ctx); err != nil {
					t.Errorf("Rebuild failed: %v", err)
				}
				return
			}
			entries, err := idx.Entries(ctx)
			if err != nil {
				t.Errorf("Entries failed: %v", err)
				return
			}
			if len(entries) != 2 {
				t.Errorf("Expected a complete snapshot of 2 entries, got %d", len(entries))
			}
		}(i)
	}
	wg.Wait()
}
