package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ppiankov/mediator/internal/model"
)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]+`)

// Renderer writes mediation output and canon documents
type Renderer struct {
	canonDir string
}

// NewRenderer creates a renderer writing canon documents into canonDir
func NewRenderer(canonDir string) *Renderer {
	return &Renderer{canonDir: canonDir}
}

// RenderJSON writes any value as indented JSON
func (r *Renderer) RenderJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// CanonDocument renders a frozen artifact in the canon document layout
// that the citation-recall index parses
func CanonDocument(a model.CanonArtifact, d model.Declarations) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n", a.Domain)
	fmt.Fprintf(&b, "Status: %s\n", a.Status)
	fmt.Fprintf(&b, "Timestamp: %s\n", a.Timestamp)
	fmt.Fprintf(&b, "Hash: SHA256:%s\n", a.Hash)
	fmt.Fprintf(&b, "DOI: %s\n\n", a.CmpDOI)

	fmt.Fprintf(&b, "**Scope Boundary:** %s\n", declared(d.ScopeBoundary))
	fmt.Fprintf(&b, "**Fiduciary Moment:** %s\n", declared(d.FiduciaryMoment))
	fmt.Fprintf(&b, "**Evidence Standard:** %s\n\n", declared(d.EvidenceStandard))

	b.WriteString("## The Invariant\n\n")
	for _, inv := range a.Invariants {
		b.WriteString(strings.TrimSpace(inv))
		b.WriteString("\n")
	}
	b.WriteString("\n## Citation\n\n")
	b.WriteString(Cite(a).CiteAs)
	b.WriteString("\n")

	return b.String()
}

// WriteCanonDocument writes the canon document for a frozen artifact and
// returns its path
func (r *Renderer) WriteCanonDocument(a model.CanonArtifact, d model.Declarations) (string, error) {
	if r.canonDir == "" {
		return "", fmt.Errorf("%w: canon directory not configured", model.ErrInvalidInput)
	}
	if a.Status != model.StatusFrozen {
		return "", fmt.Errorf("%w: only frozen artifacts become canon documents", model.ErrInvalidInput)
	}
	if err := os.MkdirAll(r.canonDir, 0755); err != nil {
		return "", fmt.Errorf("create canon dir: %w", err)
	}

	path := filepath.Join(r.canonDir, CanonFileName(a))
	if err := writeFileAtomic(path, []byte(CanonDocument(a, d))); err != nil {
		return "", err
	}
	return path, nil
}

// CanonFileName derives a stable document name from the domain and hash
func CanonFileName(a model.CanonArtifact) string {
	slug := strings.Trim(unsafeNameChars.ReplaceAllString(strings.ToLower(a.Domain), "-"), "-")
	if slug == "" {
		slug = "canon"
	}
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	hash := a.Hash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return slug + "_" + hash + ".md"
}

func declared(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not declared"
	}
	return strings.Join(strings.Fields(s), " ")
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
