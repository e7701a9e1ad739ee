package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sleepwiki/ingredex"
	"github.com/sleepwiki/ingredex/internal/config"
	"github.com/sleepwiki/ingredex/internal/export"
	"github.com/sleepwiki/ingredex/model"
)

type parseFlags struct {
	decodeFlags
	output   string
	summary  string
	sqlite   string
	xlsx     string
	warnings bool
}

func newParseCmd() *cobra.Command {
	var flags parseFlags

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Decode the cached page and write the dataset",
		Long: "Decodes the ingredient table of the cached wiki page and writes the entity dataset, " +
			"the summary sidecar and, when configured, a SQLite database and an XLSX workbook.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Entity dataset JSON file (default: from config)")
	cmd.Flags().StringVar(&flags.summary, "summary", "", "Summary JSON file (default: from config)")
	cmd.Flags().StringVar(&flags.sqlite, "sqlite", "", "Also write the dataset to this SQLite database")
	cmd.Flags().StringVar(&flags.xlsx, "xlsx", "", "Also write the patterns to this XLSX workbook")
	cmd.Flags().BoolVarP(&flags.warnings, "warnings", "w", false, "Print every skipped row")

	return cmd
}

func runParse(cmd *cobra.Command, flags parseFlags) error {
	a, err := loadApp(cmd, func(cfg *config.Config) {
		flags.apply(cmd, cfg)
		if flags.output != "" {
			cfg.Output.Entities = flags.output
		}
		if cmd.Flags().Changed("summary") {
			cfg.Output.Summary = flags.summary
		}
		if flags.sqlite != "" {
			cfg.Output.SQLite = flags.sqlite
		}
		if flags.xlsx != "" {
			cfg.Output.XLSX = flags.xlsx
		}
	})
	if err != nil {
		return err
	}

	input := flags.inputPath(a.cfg)
	dec, err := a.decoder(input)
	if err != nil {
		return err
	}

	res, err := dec.Decode()
	if err != nil {
		if res != nil {
			printReport(a.out, res)
		}
		return fmt.Errorf("decoding %s: %w", input, err)
	}

	if err := writeOutputs(cmd.Context(), a, res, time.Now()); err != nil {
		return err
	}

	printReport(a.out, res)
	if flags.warnings && len(res.Warnings) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, ingredex.FormatWarnings(res.Warnings))
	}
	return nil
}

// writeOutputs writes every configured sink.
func writeOutputs(ctx context.Context, a *app, res *ingredex.Result, now time.Time) error {
	out := a.cfg.Output

	if err := export.WriteFile(out.Entities, func(w io.Writer) error {
		return export.WriteEntities(w, res.Entities)
	}); err != nil {
		return fmt.Errorf("writing entities: %w", err)
	}
	a.logger.Info("wrote entities", "path", out.Entities, "count", len(res.Entities))

	if out.Summary != "" {
		summary := model.NewSummary(res.Entities, now, res.Report.Fallback)
		if err := export.WriteFile(out.Summary, func(w io.Writer) error {
			return export.WriteSummary(w, summary)
		}); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		a.logger.Info("wrote summary", "path", out.Summary)
	}

	if out.SQLite != "" {
		store, err := export.OpenSQLite(out.SQLite, a.logger)
		if err != nil {
			return err
		}
		defer store.Close()

		info := export.Import{At: now, Fallback: res.Report.Fallback}
		if err := store.Replace(ctx, res.Entities, info); err != nil {
			return fmt.Errorf("writing sqlite: %w", err)
		}
		a.logger.Info("wrote sqlite", "path", out.SQLite)
	}

	if out.XLSX != "" {
		if err := export.WriteFile(out.XLSX, func(w io.Writer) error {
			return export.WriteXLSX(w, res.Entities)
		}); err != nil {
			return fmt.Errorf("writing xlsx: %w", err)
		}
		a.logger.Info("wrote xlsx", "path", out.XLSX)
	}

	return nil
}

func printReport(w io.Writer, res *ingredex.Result) {
	r := res.Report
	if r.Fallback {
		fmt.Fprintf(w, "Used the fallback dataset (%d entities): %v\n", r.Entities, r.FallbackReason)
		return
	}
	fmt.Fprintf(w, "Decoded %d entities from table %d (%d rows, %d tables found)\n", r.Entities, r.SelectedTable, r.SelectedRows, r.TablesFound)
	fmt.Fprintf(w, "Rows: %d header, %d data, %d empty, %d excluded\n", r.HeaderRows, r.DataRows, r.EmptyRows, r.ExcludedRows)
	fmt.Fprintf(w, "Skipped: %d short, %d failed, %d discarded\n", r.ShortRows, r.FailedRows, r.DiscardedRows)
	fmt.Fprintf(w, "Patterns: %d decoded, %d skipped\n", r.PatternsDecoded, r.PatternsSkipped)
}
