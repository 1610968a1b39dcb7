package pipeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/mediator/internal/model"
)

// TimestampFormat is the artifact timestamp layout (UTC, RFC 3339 with nanoseconds)
const TimestampFormat = "2006-01-02T15:04:05.000000000Z"

// CanonicalJSON encodes an artifact with object keys sorted at every
// level and the hash field omitted. It is the exact input of the digest.
func CanonicalJSON(a model.CanonArtifact) ([]byte, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal artifact: %w", err)
	}

	// Round-trip through generic values so that struct field order is
	// replaced by sorted map keys. UseNumber keeps numbers verbatim.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	delete(doc, "hash")

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// HashArtifact computes the SHA-256 hex digest of an artifact's canonical encoding
func HashArtifact(a model.CanonArtifact) (string, error) {
	encoded, err := CanonicalJSON(a)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyArtifact recomputes the digest and compares it to the recorded hash
func VerifyArtifact(a model.CanonArtifact) bool {
	if a.Hash == "" {
		return false
	}
	hash, err := HashArtifact(a)
	return err == nil && hash == a.Hash
}

// Cite builds the human-citable summary of an artifact
func Cite(a model.CanonArtifact) model.Citation {
	prefix := a.Hash
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	return model.Citation{
		Domain:    a.Domain,
		Status:    a.Status,
		Timestamp: a.Timestamp,
		Hash:      a.Hash,
		CmpDOI:    a.CmpDOI,
		CiteAs: fmt.Sprintf("Canonical Doctrine: %s [%s] SHA256:%s... via %s (DOI: %s)",
			a.Domain, a.Status, prefix, model.ProtocolVersion, a.CmpDOI),
	}
}

// sealArtifact stamps, hashes and returns a new artifact
func sealArtifact(a model.CanonArtifact, now time.Time) (model.CanonArtifact, error) {
	a.Schema = model.ArtifactSchema
	a.CmpDOI = model.ProtocolDOI
	a.Timestamp = now.UTC().Format(TimestampFormat)
	if a.Invariants == nil {
		a.Invariants = []string{}
	}
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}

	hash, err := HashArtifact(a)
	if err != nil {
		return model.CanonArtifact{}, err
	}
	a.Hash = hash
	return a, nil
}
