package engine

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"stabbench/internal/config"
)

type record struct {
	descriptors []Descriptor
	state       State
	message     string
	scratch     map[string]string
	budget      int
	startedAt   time.Time
	elapsed     time.Duration
	results     []Prediction
	url         string
}

// Table holds the jobs for one predictor run. It is the single source of
// truth for job state; workers, the snapshot writer and the aggregator all
// read through it.
type Table struct {
	mu        sync.RWMutex
	records   []*record
	terminal  int
	predictor string
	creds     config.Credentials
	log       *slog.Logger
}

// TableOptions configures a new Table.
type TableOptions struct {
	Predictor   string
	Credentials config.Credentials
	// MaxRetries is the per-job polling budget in cycles.
	MaxRetries int
	Logger     *slog.Logger
}

// NewTable builds a job table from the requested descriptors, applying the
// adapter's grouping rules. Descriptor order is preserved; grouped jobs sit
// at the position of their first member.
func NewTable(descs []Descriptor, flags Flags, opts TableOptions) *Table {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = config.DefaultMaxRetries
	}
	t := &Table{
		predictor: opts.Predictor,
		creds:     opts.Credentials,
		log:       opts.Logger,
	}

	newRecord := func(d Descriptor) *record {
		return &record{
			descriptors: []Descriptor{d},
			state:       StateNotStarted,
			message:     StateNotStarted.DefaultMessage(),
			budget:      opts.MaxRetries,
		}
	}

	if !flags.GroupMutations {
		for _, d := range descs {
			t.records = append(t.records, newRecord(d))
		}
		return t
	}

	byKey := make(map[string]*record)
	for _, d := range descs {
		key := groupKey(d, flags.GroupBy)
		if rec, ok := byKey[key]; ok {
			rec.descriptors = append(rec.descriptors, d)
			continue
		}
		rec := newRecord(d)
		byKey[key] = rec
		t.records = append(t.records, rec)
	}
	return t
}

func groupKey(d Descriptor, fields []string) string {
	if len(fields) == 0 {
		fields = []string{"identifier", "chain"}
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		switch f {
		case "identifier":
			parts = append(parts, d.Identifier)
		case "chain":
			parts = append(parts, d.Chain)
		case "ph":
			parts = append(parts, d.PH)
		case "temperature":
			parts = append(parts, d.Temperature)
		}
	}
	return strings.Join(parts, "\x00")
}

// Len returns the number of jobs.
func (t *Table) Len() int {
	return len(t.records)
}

// Job returns a handle to the i-th job.
func (t *Table) Job(i int) *Job {
	return &Job{table: t, idx: i}
}

func (t *Table) stateOf(i int) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.records[i].state
}

func (t *Table) setState(i int, s State, message string) {
	if message == "" {
		message = s.DefaultMessage()
	}

	t.mu.Lock()
	rec := t.records[i]
	wasBlocking := rec.state.IsBlocking()
	rec.state = s
	rec.message = message
	if wasBlocking && s.IsTerminal() {
		t.terminal++
		if !rec.startedAt.IsZero() && rec.elapsed == 0 {
			rec.elapsed = time.Since(rec.startedAt)
		}
	}
	processed, total := t.terminal, len(t.records)
	t.mu.Unlock()

	if s.IsTerminal() {
		t.log.Info("job finished",
			slog.String("predictor", t.predictor),
			slog.Int("job", i),
			slog.String("state", string(s)),
			slog.String("progress", progress(processed, total)))
	} else {
		t.log.Debug("job state changed",
			slog.String("predictor", t.predictor),
			slog.Int("job", i),
			slog.String("state", string(s)))
	}
}

func progress(processed, total int) string {
	return strconv.Itoa(processed) + "/" + strconv.Itoa(total)
}

func (t *Table) startTimer(i int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[i].startedAt = time.Now()
}

// ConsumeBudget spends one polling cycle. It reports false when the budget
// was already exhausted.
func (t *Table) ConsumeBudget(i int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.records[i]
	if rec.budget <= 0 {
		return false
	}
	rec.budget--
	return true
}

// MarkAll forces every non-terminal job into the given state.
func (t *Table) MarkAll(s State, message string) {
	for i := range t.records {
		if t.stateOf(i).IsBlocking() {
			t.setState(i, s, message)
		}
	}
}

// Terminal returns how many jobs have reached a final state.
func (t *Table) Terminal() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.terminal
}
