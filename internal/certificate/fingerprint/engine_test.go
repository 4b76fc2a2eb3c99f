package fingerprint

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/suite"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = New()
}

func (s *EngineSuite) sampleFields() Fields {
	return Fields{
		HolderEmail:     "a@x.uz",
		IssuerEmail:     "b@y.uz",
		Title:           "Diploma",
		InstitutionName: "TDTU",
		IssueDate:       "2024-01-01",
		Degree:          "BSc",
		Grade:           "A",
	}
}

// TestDeterminism verifies the core invariant: identical content always
// yields an identical fingerprint.
func (s *EngineSuite) TestDeterminism() {
	first := s.engine.Derive(s.sampleFields())
	second := s.engine.Derive(s.sampleFields())
	s.Equal(first, second)

	s.Len(first, 64, "sha256 hex must be 64 chars")
	_, err := hex.DecodeString(first)
	s.NoError(err, "fingerprint must be valid hex")
}

// TestSensitivity verifies that any single-field mutation, including
// whitespace, changes the fingerprint.
func (s *EngineSuite) TestSensitivity() {
	base := s.engine.Derive(s.sampleFields())

	mutations := map[string]Fields{}

	f := s.sampleFields()
	f.HolderEmail = "a@x.us"
	mutations["holder email"] = f

	f = s.sampleFields()
	f.IssuerEmail = "b@y.uz "
	mutations["issuer email trailing space"] = f

	f = s.sampleFields()
	f.Title = "diploma"
	mutations["title case"] = f

	f = s.sampleFields()
	f.InstitutionName = "TDTU2"
	mutations["institution"] = f

	f = s.sampleFields()
	f.IssueDate = "2024-01-02"
	mutations["issue date"] = f

	f = s.sampleFields()
	f.Degree = "MSc"
	mutations["degree"] = f

	f = s.sampleFields()
	f.Grade = "B"
	mutations["grade"] = f

	for name, mutated := range mutations {
		s.NotEqual(base, s.engine.Derive(mutated), "mutation %q must change the fingerprint", name)
	}
}

// TestSwappedValuesDiffer catches a serialization that concatenates values
// without binding them to their keys.
func (s *EngineSuite) TestSwappedValuesDiffer() {
	f := s.sampleFields()
	swapped := f
	swapped.HolderEmail, swapped.IssuerEmail = f.IssuerEmail, f.HolderEmail

	s.NotEqual(s.engine.Derive(f), s.engine.Derive(swapped))
}

// TestTotalOnEmptyFields verifies derivation never fails: missing optional
// fields hash as empty strings.
func (s *EngineSuite) TestTotalOnEmptyFields() {
	empty := s.engine.Derive(Fields{})
	s.Len(empty, 64)

	partial := s.sampleFields()
	partial.Degree = ""
	partial.Grade = ""
	s.NotEqual(empty, s.engine.Derive(partial))
}
