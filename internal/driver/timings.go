package driver

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/phonometrica/phonometrica-sub000/internal/observ"
)

type timingPayload struct {
	Kind    string               `json:"kind"` // "file" or "total"
	Path    string               `json:"path,omitempty"`
	Cached  bool                 `json:"cached,omitempty"`
	Failed  bool                 `json:"failed,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// WriteTimings prints the phase timings of each file of a batch followed
// by the phases summed over the batch, as JSON lines or as text.
func WriteTimings(w io.Writer, results []FileResult, asJSON bool) error {
	payloads := make([]timingPayload, 0, len(results)+1)
	reports := make([]observ.Report, 0, len(results))
	for _, r := range results {
		payloads = append(payloads, timingPayload{
			Kind:    "file",
			Path:    r.Path,
			Cached:  r.Cached,
			Failed:  r.Err != nil,
			TotalMS: r.Timing.TotalMS,
			Phases:  r.Timing.Phases,
		})
		reports = append(reports, r.Timing)
	}
	total := observ.Merge(reports...)
	payloads = append(payloads, timingPayload{Kind: "total", TotalMS: total.TotalMS, Phases: total.Phases})

	if asJSON {
		enc := json.NewEncoder(w)
		for i := range payloads {
			if err := enc.Encode(&payloads[i]); err != nil {
				return err
			}
		}
		return nil
	}
	for _, p := range payloads {
		title := p.Path
		switch {
		case p.Kind == "total":
			title = fmt.Sprintf("%d file(s)", len(results))
		case p.Cached:
			title += " (cached)"
		case p.Failed:
			title += " (failed)"
		}
		report := observ.Report{TotalMS: p.TotalMS, Phases: p.Phases}
		if _, err := fmt.Fprintf(w, "%s:\n%s", title, report); err != nil {
			return err
		}
	}
	return nil
}
