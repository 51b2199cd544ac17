// Package report defines the unified result table and its on-disk destinations.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Row is one line of the unified result table: one originally requested
// mutation against one predictor.
type Row struct {
	Identifier     string
	Mutation       string
	Chain          string
	DDG            string // predicted stability change; empty when none was produced
	State          string
	Predictor      string
	InputKind      string
	SourceURL      string
	ElapsedSeconds float64
	Message        string // human-readable state detail, verbose output only
}

// Header returns the CSV column names.
func Header(withMessages bool) []string {
	h := []string{
		"identifier", "mutation", "chain", "DDG", "status",
		"predictor", "input_type", "url", "elapsed_sec",
	}
	if withMessages {
		h = append(h, "status_message")
	}
	return h
}

func (r Row) record(withMessages bool) []string {
	rec := []string{
		r.Identifier, r.Mutation, r.Chain, r.DDG, r.State,
		r.Predictor, r.InputKind, r.SourceURL,
		strconv.FormatFloat(r.ElapsedSeconds, 'f', 2, 64),
	}
	if withMessages {
		rec = append(rec, r.Message)
	}
	return rec
}

// Dedupe removes rows equal in every column, preserving first-seen order.
func Dedupe(rows []Row) []Row {
	seen := make(map[Row]struct{}, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// WriteCSV writes the unified table to w.
func WriteCSV(w io.Writer, rows []Row, withMessages bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(withMessages)); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record(withMessages)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Destination is a per-run output folder holding the (periodically
// overwritten) results snapshot and the one-time batch summary.
type Destination struct {
	dir          string
	withMessages bool
}

// NewDestination creates `stabbench_<timestamp>` under base.
func NewDestination(base string, withMessages bool) (*Destination, error) {
	dir := filepath.Join(base, "stabbench_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output folder: %w", err)
	}
	return &Destination{dir: dir, withMessages: withMessages}, nil
}

// Dir returns the destination folder.
func (d *Destination) Dir() string {
	return d.dir
}

// WriteResults overwrites results.csv atomically (write-then-rename), so a
// reader never observes a half-written snapshot.
func (d *Destination) WriteResults(rows []Row) error {
	tmp, err := os.CreateTemp(d.dir, "results-*.csv.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, rows, d.withMessages); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(d.dir, "results.csv"))
}

// Summary is the one-time pre-run description of the input batch.
type Summary struct {
	RunID                  string         `json:"run_id"`
	CreatedAt              time.Time      `json:"created_at"`
	TotalMutations         int            `json:"total_mutations"`
	UniqueIdentifiers      int            `json:"unique_identifiers"`
	ByInputKind            map[string]int `json:"by_input_kind"`
	Predictors             []string       `json:"predictors"`
	MutationsPerIdentifier Stats          `json:"mutations_per_identifier"`
}

// Stats holds descriptive statistics over a sample of counts.
type Stats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
}

// ComputeStats summarizes a sample. An empty sample yields zeros.
func ComputeStats(sample []int) Stats {
	if len(sample) == 0 {
		return Stats{}
	}
	s := Stats{Min: sample[0], Max: sample[0]}
	sum := 0
	for _, v := range sample {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
	}
	s.Mean = float64(sum) / float64(len(sample))
	return s
}

// WriteSummary writes summary.json into the destination folder.
func (d *Destination) WriteSummary(s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(d.dir, "summary.json"), data, 0o644)
}
