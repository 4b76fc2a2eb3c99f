// Package fingerprint derives the deterministic content hash that binds a
// certificate to its issued content. The hashed field set is a fixed,
// versioned contract: changing which fields are hashed requires a new scheme
// tag, never a silent edit.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Scheme tags fingerprints with the field-set version that produced them.
const Scheme = "v1"

// Fields is the canonical content field set covered by scheme v1. Optional
// fields hash as empty strings so derivation stays total.
type Fields struct {
	HolderEmail     string
	IssuerEmail     string
	Title           string
	InstitutionName string
	IssueDate       string
	Degree          string
	Grade           string
}

// Engine derives fingerprints. It is stateless; the type exists so callers
// depend on an explicit collaborator instead of a package-level function.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Derive computes the hex-encoded SHA-256 fingerprint over the canonical
// serialization of f. It is a pure function: identical fields always produce
// an identical fingerprint, independent of caller-side field ordering.
func (e *Engine) Derive(f Fields) string {
	// encoding/json sorts map keys, which pins the serialization to a fixed
	// key order regardless of struct layout.
	canonical := map[string]string{
		"degree":           f.Degree,
		"grade":            f.Grade,
		"holder_email":     f.HolderEmail,
		"institution_name": f.InstitutionName,
		"issue_date":       f.IssueDate,
		"issuer_email":     f.IssuerEmail,
		"title":            f.Title,
	}

	// Marshal of map[string]string cannot fail.
	payload, _ := json.Marshal(canonical)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
