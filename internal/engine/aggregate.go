package engine

import (
	"log/slog"

	"stabbench/internal/report"
)

// Rows flattens the table into the unified result layout: one row per
// originally requested mutation, carrying the matching prediction when one
// exists and an empty DDG otherwise. Exact duplicates are dropped.
func (e *Engine) Rows() []report.Row {
	hdr := e.adapter.Header()

	e.table.mu.RLock()
	defer e.table.mu.RUnlock()

	var rows []report.Row
	for _, rec := range e.table.records {
		for _, d := range rec.descriptors {
			row := report.Row{
				Identifier:     d.Identifier,
				Mutation:       d.Mutation,
				Chain:          d.Chain,
				State:          string(rec.state),
				Predictor:      hdr.Name,
				InputKind:      string(hdr.InputKind),
				SourceURL:      rec.url,
				ElapsedSeconds: rec.elapsed.Seconds(),
				Message:        rec.message,
			}
			row.DDG = e.matchDDG(rec, d)
			rows = append(rows, row)
		}
	}
	return report.Dedupe(rows)
}

// matchDDG finds the prediction for a descriptor inside its record. The
// match key is the mutation code, narrowed by chain when both sides state
// one. When the service reported conflicting values for the same key the
// first one wins and the conflict is logged.
func (e *Engine) matchDDG(rec *record, d Descriptor) string {
	ddg := ""
	for _, p := range rec.results {
		if p.Mutation != d.Mutation {
			continue
		}
		if p.Chain != "" && d.Chain != "" && p.Chain != d.Chain {
			continue
		}
		if ddg == "" {
			ddg = p.DDG
			continue
		}
		if p.DDG != ddg {
			e.log.Warn("conflicting predictions for mutation, keeping first",
				slog.String("identifier", d.Identifier),
				slog.String("mutation", d.Mutation),
				slog.String("kept", ddg),
				slog.String("dropped", p.DDG))
		}
	}
	return ddg
}
