// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"time"

	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

// Summarize aggregates per-item outcomes into a run summary. Pure and
// order-independent: the same multiset of outcomes always yields the same
// summary.
func Summarize(outcomes []types.Outcome, totalElapsed time.Duration) types.RunSummary {
	s := types.RunSummary{
		Total:        len(outcomes),
		TotalElapsed: totalElapsed,
	}

	var sum float64
	for _, o := range outcomes {
		if o.OK {
			s.Succeeded++
		} else {
			s.Failed++
		}
		sum += o.Seconds()
	}

	if s.Total > 0 {
		s.MeanSeconds = sum / float64(s.Total)
	}
	return s
}
