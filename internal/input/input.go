// Package input turns mutation-file lines into job descriptors.
//
// Each non-empty line reads `IDENTIFIER MUTATION CHAIN [PH TEMPERATURE]`,
// whitespace separated. Lines starting with '#' are comments.
package input

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"stabbench/internal/apperrors"
	"stabbench/internal/engine"
)

// Options tunes the parser.
type Options struct {
	// SkipHeader drops the first non-comment line.
	SkipHeader bool
}

var mutationRe = regexp.MustCompile(`^[A-Za-z][0-9]+[A-Za-z]$`)

// Parse reads descriptors from r. It fails on the first malformed line,
// naming it.
func Parse(r io.Reader, opts Options) ([]engine.Descriptor, error) {
	var descs []engine.Descriptor
	sc := bufio.NewScanner(r)
	lineNo := 0
	skipped := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if opts.SkipHeader && !skipped {
			skipped = true
			continue
		}
		d, err := parseLine(line)
		if err != nil {
			return nil, apperrors.Input(fmt.Sprintf("line %d: %v", lineNo, err))
		}
		descs = append(descs, d)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(descs) == 0 {
		return nil, apperrors.Input("no mutations found")
	}
	return descs, nil
}

func parseLine(line string) (engine.Descriptor, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return engine.Descriptor{}, fmt.Errorf("expected IDENTIFIER MUTATION CHAIN, got %d fields", len(fields))
	}
	if len(fields) > 5 {
		return engine.Descriptor{}, fmt.Errorf("too many fields (%d)", len(fields))
	}

	mutation := strings.ToUpper(fields[1])
	if !mutationRe.MatchString(mutation) {
		return engine.Descriptor{}, fmt.Errorf("malformed mutation code %q", fields[1])
	}

	d := engine.Descriptor{
		Identifier: fields[0],
		Mutation:   mutation,
		Chain:      strings.ToUpper(fields[2]),
		Kind:       DetectKind(fields[0]),
	}
	if len(fields) > 3 {
		d.PH = fields[3]
	}
	if len(fields) > 4 {
		d.Temperature = fields[4]
	}
	return d, nil
}

var (
	pdbIDRe    = regexp.MustCompile(`^[0-9][A-Za-z0-9]{3}$`)
	sequenceRe = regexp.MustCompile(`^[ACDEFGHIKLMNPQRSTVWYacdefghiklmnpqrstvwy]{10,}$`)
)

// DetectKind guesses what kind of structural input an identifier names: a
// path to a structure file, a 4-character PDB code, or a raw amino-acid
// sequence.
func DetectKind(identifier string) engine.InputKind {
	lower := strings.ToLower(identifier)
	if strings.ContainsAny(identifier, "/\\") ||
		strings.HasSuffix(lower, ".pdb") || strings.HasSuffix(lower, ".ent") {
		return engine.KindPDBFile
	}
	if pdbIDRe.MatchString(identifier) {
		return engine.KindPDBID
	}
	if sequenceRe.MatchString(identifier) {
		return engine.KindSequence
	}
	return engine.KindPDBID
}
