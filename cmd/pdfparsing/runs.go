// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoohahaBIGHEAD/PdfParsing/internal/history"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List recorded batch runs, or show one run's documents",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("history-db")
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := history.NewStore(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			return showRunItems(store, args[0])
		}
		return listRuns(store, limit)
	},
}

func init() {
	runsCmd.Flags().String("history-db", "conversion_results/history.db", "run ledger path")
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")

	rootCmd.AddCommand(runsCmd)
}

func listRuns(store *history.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			string(r.Backend),
			fmt.Sprintf("%d", r.Workers),
			fmt.Sprintf("%d/%d", r.Summary.Succeeded, r.Summary.Total),
			fmt.Sprintf("%.1f", r.Summary.MeanSeconds),
		})
	}
	fmt.Println(renderTable(
		[]string{"Run", "Started", "Backend", "Workers", "OK/Total", "Mean s"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	return nil
}

func showRunItems(store *history.Store, runID string) error {
	items, err := store.Items(runID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Printf("No documents recorded for run %s.\n", runID)
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, o := range items {
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
	fmt.Println(renderTable(
		[]string{"Document", "Status", "Seconds", "Assets"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	))
	return nil
}
