package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteCSV(t *testing.T) {
	rows := []Row{
		{Identifier: "1CSE", Mutation: "L45G", Chain: "I", DDG: "-1.2", State: "finished", Predictor: "alpha", InputKind: "pdb_id", SourceURL: "https://a/1", ElapsedSeconds: 12.5},
		{Identifier: "1CSE", Mutation: "L45W", Chain: "I", State: "failed", Predictor: "alpha", InputKind: "pdb_id", ElapsedSeconds: 3},
	}

	var sb strings.Builder
	if err := WriteCSV(&sb, rows, false); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "identifier,mutation,chain,DDG,status,predictor,input_type,url,elapsed_sec" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "-1.2") || !strings.Contains(lines[1], "12.50") {
		t.Fatalf("unexpected first row: %s", lines[1])
	}
}

func TestWriteCSVWithMessages(t *testing.T) {
	rows := []Row{{Identifier: "P12345", Mutation: "A1G", State: "timeout", Message: "polling budget exhausted"}}

	var sb strings.Builder
	if err := WriteCSV(&sb, rows, true); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "status_message") {
		t.Fatal("missing status_message column")
	}
	if !strings.Contains(out, "polling budget exhausted") {
		t.Fatal("missing message value")
	}
}

func TestDedupe(t *testing.T) {
	a := Row{Identifier: "1CSE", Mutation: "L45G", Predictor: "alpha"}
	b := Row{Identifier: "1CSE", Mutation: "L45G", Predictor: "beta"}

	out := Dedupe([]Row{a, b, a, a, b})
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[0] != a || out[1] != b {
		t.Fatal("order not preserved")
	}
}

func TestDestinationWriteResults(t *testing.T) {
	base := t.TempDir()
	dst, err := NewDestination(base, false)
	if err != nil {
		t.Fatalf("NewDestination: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(dst.Dir()), "stabbench_") {
		t.Fatalf("unexpected folder name: %s", dst.Dir())
	}

	rows := []Row{{Identifier: "1CSE", Mutation: "L45G", State: "finished"}}
	if err := dst.WriteResults(rows); err != nil {
		t.Fatalf("WriteResults: %v", err)
	}
	// Overwrite must replace, not append.
	if err := dst.WriteResults(rows); err != nil {
		t.Fatalf("WriteResults second pass: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dst.Dir(), "results.csv"))
	if err != nil {
		t.Fatalf("reading results: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row after overwrite, got %d lines", len(lines))
	}

	entries, err := os.ReadDir(dst.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
}

func TestWriteSummary(t *testing.T) {
	dst, err := NewDestination(t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}

	s := &Summary{
		RunID:             "run-1",
		CreatedAt:         time.Now().UTC(),
		TotalMutations:    3,
		UniqueIdentifiers: 2,
		ByInputKind:       map[string]int{"pdb_id": 2, "sequence": 1},
		Predictors:        []string{"alpha", "beta"},
	}
	s.MutationsPerIdentifier = ComputeStats([]int{2, 1})

	if err := dst.WriteSummary(s); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dst.Dir(), "summary.json"))
	if err != nil {
		t.Fatal(err)
	}
	var got Summary
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}
	if got.TotalMutations != 3 || got.MutationsPerIdentifier.Mean != 1.5 {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestComputeStats(t *testing.T) {
	if s := ComputeStats(nil); s != (Stats{}) {
		t.Fatalf("empty sample should be zero, got %+v", s)
	}
	s := ComputeStats([]int{4, 1, 7})
	if s.Min != 1 || s.Max != 7 || s.Mean != 4 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}
