// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hoohahaBIGHEAD/PdfParsing/internal/batch"
	"github.com/hoohahaBIGHEAD/PdfParsing/internal/convert"
	"github.com/hoohahaBIGHEAD/PdfParsing/internal/history"
	"github.com/hoohahaBIGHEAD/PdfParsing/internal/secrets"
	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

const reportFileName = "run_report.yaml"

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert all PDFs in a directory to Markdown",
	Long: `Convert scans the input directory (flat, non-recursive) for PDF files
and converts each one through the configured engine. Output for a document
named paper.pdf lands in <output-dir>/paper/: paper.md (or paper.txt),
auxiliary images under paper_artifacts/, and an optional paper_meta.json.

The worker count is sized from the detected compute device unless --workers
forces it. A failed document is reported and skipped; it never aborts the
batch. Parallel runs report results in completion order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := batchConfig(cmd)
		if err != nil {
			return err
		}

		// Backend prerequisites are validated here, before any work starts.
		factory, err := convert.NewFactory(cfg.Converter)
		if err != nil {
			return err
		}

		result, err := batch.Run(cfg, factory, os.Stdout)
		if errors.Is(err, batch.ErrNoWork) {
			fmt.Printf("No PDF files found in %q\n", cfg.InputDir)
			return nil
		}
		if err != nil {
			return err
		}

		runID := uuid.NewString()

		reportPath := filepath.Join(cfg.OutputDir, reportFileName)
		if err := batch.WriteReportFile(reportPath, runID, cfg, result); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}

		if cfg.HistoryDB != "" {
			recordHistory(runID, cfg, result)
		}

		printRunSummary(result)
		return nil
	},
}

func init() {
	convertCmd.Flags().String("input-dir", "pdf_source", "directory scanned for PDF files")
	convertCmd.Flags().String("output-dir", "conversion_results", "directory receiving converted output")
	convertCmd.Flags().String("backend", "docling", "conversion backend: docling or llamaparse")
	convertCmd.Flags().Int("workers", 0, "worker count (0 = size from detected device)")
	convertCmd.Flags().Float64("image-scale", 2.0, "render resolution multiplier for images")
	convertCmd.Flags().Bool("page-images", true, "materialize page renders as assets")
	convertCmd.Flags().Bool("picture-images", true, "materialize extracted figures as assets")
	convertCmd.Flags().String("language", "en", "parsing language hint")
	convertCmd.Flags().String("mode", "markdown", "primary output: markdown or text")
	convertCmd.Flags().Bool("dual-text", false, "also write a plain-text artifact next to the markdown")
	convertCmd.Flags().Bool("metadata", true, "write a <stem>_meta.json artifact per document")
	convertCmd.Flags().String("history-db", "", "run ledger path (default: <output-dir>/history.db, empty string after --history-db= disables)")

	rootCmd.AddCommand(convertCmd)
}

// batchConfig assembles the run configuration from flags, the viper config
// file, and loaded secrets. Flags win over file values.
func batchConfig(cmd *cobra.Command) (types.BatchConfig, error) {
	flags := cmd.Flags()

	str := func(name, viperKey string) string {
		if !flags.Changed(name) && viper.IsSet(viperKey) {
			return viper.GetString(viperKey)
		}
		v, _ := flags.GetString(name)
		return v
	}

	cfg := types.BatchConfig{
		InputDir:  str("input-dir", "input_dir"),
		OutputDir: str("output-dir", "output_dir"),
		Limits: types.WorkerLimits{
			CUDA: viper.GetInt("limits.cuda"),
			MPS:  viper.GetInt("limits.mps"),
			CPU:  viper.GetInt("limits.cpu"),
		},
		Converter: types.ConverterConfig{
			Backend:  types.ConversionBackend(str("backend", "converter.backend")),
			Language: str("language", "converter.language"),
			Mode:     types.ResultMode(str("mode", "converter.mode")),
		},
	}
	cfg.WriteMetadata, _ = flags.GetBool("metadata")
	cfg.Converter.ImageScale, _ = flags.GetFloat64("image-scale")
	cfg.Converter.GeneratePageImages, _ = flags.GetBool("page-images")
	cfg.Converter.GeneratePictureImages, _ = flags.GetBool("picture-images")
	cfg.Converter.DualText, _ = flags.GetBool("dual-text")
	cfg.Workers, _ = flags.GetInt("workers")
	if cfg.Workers == 0 {
		cfg.Workers = viper.GetInt("workers")
	}
	cfg.Converter.Timeout = viper.GetDuration("converter.timeout")
	cfg.Converter.UserAgent = "pdfparsing/" + version

	if cfg.Converter.Backend == types.BackendLlamaParse {
		cfg.Converter.APIKey = secretDefault(secrets.KeyLlamaCloud, viper.GetString("converter.api_key"))
	}

	cfg.HistoryDB = str("history-db", "history_db")
	if cfg.HistoryDB == "" && !flags.Changed("history-db") {
		cfg.HistoryDB = filepath.Join(cfg.OutputDir, "history.db")
	}

	return cfg, nil
}

// recordHistory appends the run to the SQLite ledger. Recording failure is
// a warning; the conversion work already succeeded.
func recordHistory(runID string, cfg types.BatchConfig, result *batch.RunResult) {
	store, err := history.NewStore(cfg.HistoryDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return
	}
	defer store.Close()

	run := history.Run{
		ID:        runID,
		StartedAt: result.StartedAt,
		InputDir:  cfg.InputDir,
		Backend:   cfg.Converter.Backend,
		Device:    result.Device,
		Workers:   result.Workers,
		Summary:   result.Summary,
	}
	if err := store.RecordRun(run, result.Outcomes); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording run history: %v\n", err)
	}
}

// printRunSummary renders the per-item table and the closing statistics
// block callers script against.
func printRunSummary(result *batch.RunResult) {
	rows := make([][]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		status := "ok"
		if !o.OK {
			status = "failed: " + o.Message
		}
		rows = append(rows, []string{
			o.Item.Name,
			status,
			fmt.Sprintf("%.1f", o.Seconds()),
			fmt.Sprintf("%d", o.AssetCount),
		})
	}

	fmt.Println()
	fmt.Println(renderTable(
		[]string{"Document", "Status", "Seconds", "Assets"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	))

	s := result.Summary
	fmt.Printf("\nConversion completed in %.1f seconds\n", s.TotalElapsed.Seconds())
	fmt.Printf("Successful: %d, Failed: %d\n", s.Succeeded, s.Failed)
	fmt.Printf("Average time per file: %.1f seconds\n", s.MeanSeconds)
}
