package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gnames/gncoleta/internal/io/loadio"
	"github.com/gnames/gnfmt"
	"github.com/spf13/cobra"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Imports taxonomy, collections and suggestions from CSV files",
	Long: `Imports CSV files into the stores and prints a report.

Taxonomy columns: family,genus,species,common_name
Collections columns: name,field_id,collection_date,family,genus,species,
  common_name,requests_help,notes
Suggestions columns: collection_id,suggester_id,family,genus,species,
  common_name,justification,confidence,status

Every file starts with a header row. Rows that cannot be stored are
reported and skipped.`,
	Run: func(cmd *cobra.Command, _ []string) {
		taxonomy, _ := cmd.Flags().GetString("taxonomy")
		collections, _ := cmd.Flags().GetString("collections")
		suggestions, _ := cmd.Flags().GetString("suggestions")
		asJSON, _ := cmd.Flags().GetBool("json")

		if taxonomy == "" && collections == "" && suggestions == "" {
			_ = cmd.Help()
			os.Exit(0)
		}

		s, err := newSession()
		if err != nil {
			slog.Error("Cannot start session", "error", err)
			os.Exit(1)
		}
		defer s.close()

		src, closeSrc, err := openSources(taxonomy, collections, suggestions)
		if err != nil {
			os.Exit(1)
		}
		defer closeSrc()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		ld := loadio.New(s.cfg, s.names, src, loadio.OptProgress(os.Stderr))
		rep, err := s.gnc.Load(ctx, ld)
		if err != nil {
			slog.Error("Cannot load data", "error", err)
			os.Exit(1)
		}

		if asJSON {
			enc := gnfmt.GNjson{Pretty: true}
			res, err := enc.Encode(rep)
			if err != nil {
				slog.Error("Cannot encode report", "error", err)
				os.Exit(1)
			}
			fmt.Println(string(res))
			return
		}
		printReport(rep)
		s.printMetrics()
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringP("taxonomy", "t", "", "path to taxonomy CSV file")
	loadCmd.Flags().StringP("collections", "c", "", "path to collections CSV file")
	loadCmd.Flags().StringP("suggestions", "s", "", "path to suggestions CSV file")
	loadCmd.Flags().BoolP("json", "j", false, "print report as JSON")
}
