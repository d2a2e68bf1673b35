// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the value types shared across the conversion
// pipeline: configuration, work items, and per-item outcomes.
package types

import "time"

// WorkItem identifies one input document of a batch run. Immutable once
// enumerated; consumed exactly once by a conversion worker.
type WorkItem struct {
	// Name is the document stem (filename without extension).
	Name string `json:"name" yaml:"name"`

	// SourcePath is the absolute or run-relative path of the input PDF.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// DestDir is the batch output directory; the worker writes all
	// artifacts for this item under DestDir/Name/.
	DestDir string `json:"dest_dir" yaml:"dest_dir"`
}

// Outcome is the result of converting one WorkItem. Exactly one Outcome
// exists per item. A failure is carried as a value, never as an error
// crossing the worker boundary, so one bad document cannot abort the batch.
type Outcome struct {
	Item WorkItem `json:"item" yaml:"item"`

	// OK reports whether conversion and all artifact writes succeeded.
	OK bool `json:"ok" yaml:"ok"`

	// Message is the failure description when OK is false, empty otherwise.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// ArtifactPaths lists the text artifacts written for this item.
	ArtifactPaths []string `json:"artifact_paths,omitempty" yaml:"artifact_paths,omitempty"`

	// AssetCount is the number of auxiliary assets (page renders, figures)
	// written under the item's artifacts subdirectory.
	AssetCount int `json:"asset_count" yaml:"asset_count"`

	// Elapsed is the wall-clock duration of the conversion attempt,
	// including artifact writes. Populated for failures too (partial time).
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Seconds returns the elapsed time in seconds, never negative.
func (o Outcome) Seconds() float64 {
	if o.Elapsed < 0 {
		return 0
	}
	return o.Elapsed.Seconds()
}

// RunSummary aggregates the outcomes of one batch run. Derived after all
// outcomes are collected; read-only thereafter.
type RunSummary struct {
	// Total is the number of work items processed.
	Total int `json:"total" yaml:"total"`

	// Succeeded and Failed partition Total.
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`

	// MeanSeconds is the mean per-item elapsed time, 0 when no items ran.
	MeanSeconds float64 `json:"mean_seconds" yaml:"mean_seconds"`

	// TotalElapsed is the wall-clock duration of the whole run.
	TotalElapsed time.Duration `json:"total_elapsed" yaml:"total_elapsed"`
}

// HasFailures reports whether any item failed, so callers can detect
// partial failure from the summary alone.
func (s RunSummary) HasFailures() bool {
	return s.Failed > 0
}
