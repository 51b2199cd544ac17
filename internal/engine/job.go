package engine

import (
	"strings"
	"time"

	"stabbench/internal/config"
)

// Descriptor is one originally requested mutation.
type Descriptor struct {
	Identifier  string
	Mutation    string
	Chain       string
	PH          string
	Temperature string
	Kind        InputKind
}

// Prediction is a single parsed result row produced by an adapter.
type Prediction struct {
	Mutation string
	Chain    string
	DDG      string
}

// Job is a handle to one record of a Table. Adapters receive jobs and talk
// to the table exclusively through them; all accessors are safe for
// concurrent use.
type Job struct {
	table *Table
	idx   int
}

// Index returns the job's position in the table.
func (j *Job) Index() int { return j.idx }

// Descriptors returns the mutations carried by this job. Grouped jobs carry
// several; ungrouped jobs exactly one.
func (j *Job) Descriptors() []Descriptor {
	j.table.mu.RLock()
	defer j.table.mu.RUnlock()
	return j.table.records[j.idx].descriptors
}

// Identifier returns the structure identifier shared by the job's
// descriptors.
func (j *Job) Identifier() string {
	return j.Descriptors()[0].Identifier
}

// Chain returns the chain shared by the job's descriptors, if any.
func (j *Job) Chain() string {
	return j.Descriptors()[0].Chain
}

// Mutations joins the job's mutation codes with the given delimiter.
func (j *Job) Mutations(delim string) string {
	descs := j.Descriptors()
	codes := make([]string, len(descs))
	for i, d := range descs {
		codes[i] = d.Mutation
	}
	return strings.Join(codes, delim)
}

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	return j.table.stateOf(j.idx)
}

// SetState transitions the job. An empty message keeps the state's default.
func (j *Job) SetState(s State, message string) {
	j.table.setState(j.idx, s, message)
}

// Fail classifies err into a terminal state and applies it.
func (j *Job) Fail(err error) {
	s, msg := Classify(err)
	j.table.setState(j.idx, s, msg)
}

// StartTimer marks the beginning of the job's wall-clock measurement.
func (j *Job) StartTimer() {
	j.table.startTimer(j.idx)
}

// Scratch returns an adapter-private value stashed on the job.
func (j *Job) Scratch(key string) string {
	j.table.mu.RLock()
	defer j.table.mu.RUnlock()
	return j.table.records[j.idx].scratch[key]
}

// SetScratch stashes an adapter-private value on the job.
func (j *Job) SetScratch(key, value string) {
	j.table.mu.Lock()
	defer j.table.mu.Unlock()
	rec := j.table.records[j.idx]
	if rec.scratch == nil {
		rec.scratch = make(map[string]string)
	}
	rec.scratch[key] = value
}

// URL returns the remote job page recorded by the adapter.
func (j *Job) URL() string {
	j.table.mu.RLock()
	defer j.table.mu.RUnlock()
	return j.table.records[j.idx].url
}

// SetURL records the remote job page for the final report.
func (j *Job) SetURL(u string) {
	j.table.mu.Lock()
	defer j.table.mu.Unlock()
	j.table.records[j.idx].url = u
}

// AddResult appends a parsed prediction to the job.
func (j *Job) AddResult(p Prediction) {
	j.table.mu.Lock()
	defer j.table.mu.Unlock()
	rec := j.table.records[j.idx]
	rec.results = append(rec.results, p)
}

// Results returns the predictions parsed so far.
func (j *Job) Results() []Prediction {
	j.table.mu.RLock()
	defer j.table.mu.RUnlock()
	rec := j.table.records[j.idx]
	out := make([]Prediction, len(rec.results))
	copy(out, rec.results)
	return out
}

// Credentials returns the login credentials configured for this run.
func (j *Job) Credentials() config.Credentials {
	return j.table.creds
}

// Elapsed returns the measured wall-clock duration, zero while the job is
// still blocking.
func (j *Job) Elapsed() time.Duration {
	j.table.mu.RLock()
	defer j.table.mu.RUnlock()
	return j.table.records[j.idx].elapsed
}
