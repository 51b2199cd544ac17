package input

import (
	"errors"
	"strings"
	"testing"

	"stabbench/internal/apperrors"
	"stabbench/internal/engine"
)

func TestParse(t *testing.T) {
	src := `# batch of two
1CSE L45G I
1CSE l45w i 7.0 25
`
	descs, err := Parse(strings.NewReader(src), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descs))
	}

	first := descs[0]
	if first.Identifier != "1CSE" || first.Mutation != "L45G" || first.Chain != "I" {
		t.Fatalf("unexpected descriptor: %+v", first)
	}
	if first.Kind != engine.KindPDBID {
		t.Fatalf("expected pdb_id kind, got %q", first.Kind)
	}

	second := descs[1]
	if second.Mutation != "L45W" || second.Chain != "I" {
		t.Fatalf("mutation and chain should be uppercased: %+v", second)
	}
	if second.PH != "7.0" || second.Temperature != "25" {
		t.Fatalf("optional fields lost: %+v", second)
	}
}

func TestParseSkipHeader(t *testing.T) {
	src := "identifier mutation chain\n1CSE L45G I\n"
	descs, err := Parse(strings.NewReader(src), Options{SkipHeader: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(descs) != 1 || descs[0].Identifier != "1CSE" {
		t.Fatalf("header not skipped: %+v", descs)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"1CSE L45G",              // missing chain
		"1CSE 45G I",             // mutation missing wild-type residue
		"1CSE L45 I",             // mutation missing substitution
		"1CSE L45G I 7.0 25 x",   // trailing junk
		"",                       // nothing at all
	}
	for _, src := range cases {
		_, err := Parse(strings.NewReader(src), Options{})
		if err == nil {
			t.Errorf("Parse(%q) should fail", src)
			continue
		}
		if !errors.Is(err, apperrors.ErrInput) {
			t.Errorf("Parse(%q): expected input error, got %v", src, err)
		}
	}
}

func TestDetectKind(t *testing.T) {
	cases := map[string]engine.InputKind{
		"1CSE":                   engine.KindPDBID,
		"2lzm":                   engine.KindPDBID,
		"./structures/model.pdb": engine.KindPDBFile,
		"model.ent":              engine.KindPDBFile,
		"MKTAYIAKQRQISFVKSHFSRQ": engine.KindSequence,
		"P12345":                 engine.KindPDBID, // accession codes submit as identifiers
	}
	for id, want := range cases {
		if got := DetectKind(id); got != want {
			t.Errorf("DetectKind(%q) = %q, want %q", id, got, want)
		}
	}
}
