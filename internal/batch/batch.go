// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch orchestrates the conversion of a directory of PDF documents:
// it enumerates work items, sizes a worker pool from the probed compute
// device, dispatches items to conversion workers, and aggregates run
// statistics. Per-item failures are contained in outcomes; one bad document
// never aborts the batch.
package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/hoohahaBIGHEAD/PdfParsing/internal/convert"
	"github.com/hoohahaBIGHEAD/PdfParsing/internal/device"
	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

// ErrNoWork reports an input directory that exists but holds no PDF
// documents. Distinct from a discovery failure: the directory was readable,
// there is simply nothing to do.
var ErrNoWork = errors.New("no PDF documents found")

const lockFile = ".pdfparsing.lock"

// RunResult carries everything a caller needs to report on a finished batch.
// Outcomes are in completion order for parallel runs; callers needing input
// order must re-sort by item name.
type RunResult struct {
	Outcomes  []types.Outcome
	Summary   types.RunSummary
	Device    types.DeviceClass
	Workers   int
	StartedAt time.Time
}

// Run executes one batch conversion: discover items in cfg.InputDir, lock
// cfg.OutputDir, resolve the worker count, dispatch, and summarize.
// Progress is streamed to w, one line per completed item. Returns ErrNoWork
// when the input directory holds no PDFs, or a discovery error when it
// cannot be read at all.
func Run(cfg types.BatchConfig, factory convert.Factory, w io.Writer) (*RunResult, error) {
	items, err := discover(cfg.InputDir, cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoWork, cfg.InputDir)
	}
	fmt.Fprintf(w, "Found %d PDF files\n", len(items))

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", cfg.OutputDir, err)
	}

	lock := flock.New(filepath.Join(cfg.OutputDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking output directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("output directory %s is locked by another run", cfg.OutputDir)
	}
	defer lock.Unlock()

	result := &RunResult{StartedAt: time.Now()}

	result.Workers = cfg.Workers
	if result.Workers <= 0 {
		result.Device = device.Probe()
		result.Workers = device.Workers(result.Device, cfg.Limits, device.HostCPUs())
		fmt.Fprintf(w, "Using device: %s\n", result.Device)
	}
	fmt.Fprintf(w, "Using %d workers\n", result.Workers)

	if result.Workers == 1 {
		result.Outcomes = runSequential(items, factory, cfg, w)
	} else {
		result.Outcomes = runParallel(items, factory, cfg, result.Workers, w)
	}

	result.Summary = Summarize(result.Outcomes, time.Since(result.StartedAt))
	return result, nil
}

// discover enumerates eligible PDFs in inputDir, flat and non-recursive,
// in name order.
func discover(inputDir, outputDir string) ([]types.WorkItem, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", inputDir, err)
	}

	var items []types.WorkItem
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		name := entry.Name()
		items = append(items, types.WorkItem{
			Name:       strings.TrimSuffix(name, filepath.Ext(name)),
			SourcePath: filepath.Join(inputDir, name),
			DestDir:    outputDir,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// runSequential processes items one at a time in enumeration order.
func runSequential(items []types.WorkItem, factory convert.Factory, cfg types.BatchConfig, w io.Writer) []types.Outcome {
	outcomes := make([]types.Outcome, 0, len(items))
	for i, item := range items {
		fmt.Fprintf(w, "Processing %d/%d: %s\n", i+1, len(items), filepath.Base(item.SourcePath))
		out := convertItem(item, factory, cfg)
		outcomes = append(outcomes, out)
		fmt.Fprintf(w, "  %s\n", statusLine(out))
	}
	return outcomes
}

// runParallel distributes items across a fixed pool of workers. Outcomes
// are collected in completion order, not submission order; only item
// identity pairing is guaranteed.
func runParallel(items []types.WorkItem, factory convert.Factory, cfg types.BatchConfig, workers int, w io.Writer) []types.Outcome {
	jobs := make(chan types.WorkItem)
	results := make(chan types.Outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				results <- convertItem(item, factory, cfg)
			}
		}()
	}

	go func() {
		for _, item := range items {
			jobs <- item
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]types.Outcome, 0, len(items))
	for out := range results {
		outcomes = append(outcomes, out)
		fmt.Fprintf(w, "(%d/%d) %s\n", len(outcomes), len(items), statusLine(out))
	}
	return outcomes
}

// statusLine formats the one-line progress message for a completed item.
func statusLine(o types.Outcome) string {
	if !o.OK {
		return fmt.Sprintf("✗ %s: %s", o.Item.Name, o.Message)
	}
	line := fmt.Sprintf("✓ %s: %.1fs", o.Item.Name, o.Seconds())
	if o.AssetCount > 0 {
		line += fmt.Sprintf(" (%d images)", o.AssetCount)
	}
	return line
}
