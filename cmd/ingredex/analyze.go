package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sleepwiki/ingredex"
	"github.com/sleepwiki/ingredex/htmldoc"
	"github.com/sleepwiki/ingredex/internal/config"
	"github.com/sleepwiki/ingredex/patterns"
)

// DefaultAnalyzeRows is the number of data rows printed by analyze.
const DefaultAnalyzeRows = 3

type analyzeFlags struct {
	decodeFlags
	rows     int
	markdown bool
}

func newAnalyzeCmd() *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Show how the page's tables would be decoded",
		Long: "Lists every candidate table, marks the one the locator selects and prints its header rows, " +
			"the first data rows with resolved identifiers and the column layout used to decode them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&flags.rows, "rows", "n", DefaultAnalyzeRows, "Number of data rows to print")
	cmd.Flags().BoolVar(&flags.markdown, "markdown", false, "Print the selected table as markdown")

	return cmd
}

func runAnalyze(cmd *cobra.Command, flags analyzeFlags) error {
	a, err := loadApp(cmd, func(cfg *config.Config) {
		flags.apply(cmd, cfg)
	})
	if err != nil {
		return err
	}

	input := flags.inputPath(a.cfg)
	dec, err := a.decoder(input)
	if err != nil {
		return err
	}

	in, err := dec.Inspect()
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", input, err)
	}

	if flags.markdown {
		if in.Selected == nil {
			return fmt.Errorf("no table selected by %s", in.Locator)
		}
		fmt.Fprint(a.out, in.Selected.ToMarkdown())
		return nil
	}

	printInspection(a.out, in, flags.rows)
	return nil
}

func printInspection(w io.Writer, in *ingredex.Inspection, rows int) {
	if in.Title != "" {
		fmt.Fprintf(w, "Title:   %s\n", in.Title)
	}
	fmt.Fprintf(w, "Locator: %s\n", in.Locator)
	fmt.Fprintf(w, "Tables:  %d\n", len(in.Tables))

	for _, t := range in.Tables {
		mark := " "
		if in.Selected != nil && t.Index == in.Selected.Index {
			mark = "*"
		}
		fmt.Fprintf(w, "%s [%d] %d rows%s\n", mark, t.Index, t.RowCount(), tableAttrs(t))
	}

	if in.Selected == nil {
		fmt.Fprintln(w, "\nNo table selected.")
		return
	}

	t := in.Selected
	cls := in.Classification
	fmt.Fprintf(w, "\nSelected table %d: %d header, %d data, %d empty, %d excluded rows\n",
		t.Index, len(cls.Headers), len(cls.Data), len(cls.Empty), len(cls.Excluded))

	fmt.Fprintln(w, "\nHeader rows:")
	for _, i := range cls.Headers {
		fmt.Fprintf(w, "  row %d: %s\n", i, formatCells(t.Rows[i], true))
	}

	n := min(rows, len(cls.Data))
	fmt.Fprintf(w, "\nData rows (first %d of %d):\n", n, len(cls.Data))
	for _, row := range cls.Data[:n] {
		fmt.Fprintf(w, "  row %d (%d cells): %s\n", row.Index, len(row.Cells), formatCells(row.Cells, false))
	}

	if len(cls.Excluded) > 0 {
		fmt.Fprintln(w, "\nExcluded rows:")
		for _, ex := range cls.Excluded {
			fmt.Fprintf(w, "  row %d: %s\n", ex.Index, ex.Reason)
		}
	}

	printCatalog(w, in.Catalog)
}

func printCatalog(w io.Writer, c *patterns.Catalog) {
	l := c.Layout
	fmt.Fprintf(w, "\nColumn layout (min %d cells):\n", c.MinCells)
	fmt.Fprintf(w, "  icon  %d\n", l.IconColumn)
	fmt.Fprintf(w, "  name  %d\n", l.NameColumn)
	fmt.Fprintf(w, "  base  %d-%d (Lv.1)\n", l.BaseStart, l.BaseStart+1)
	for _, e := range c.Entries {
		line := fmt.Sprintf("  %-5s %d-%d", e.Code, e.Start, e.End()-1)
		if e.Backfill != 0 {
			line += fmt.Sprintf(" (Lv.%d)", e.Backfill)
		}
		fmt.Fprintln(w, line)
	}
}

func tableAttrs(t *htmldoc.ParsedTable) string {
	var parts []string
	if t.ID != "" {
		parts = append(parts, "id="+t.ID)
	}
	if t.Class != "" {
		parts = append(parts, "class="+t.Class)
	}
	if t.Caption != "" {
		parts = append(parts, fmt.Sprintf("caption=%q", t.Caption))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + strings.Join(parts, " ")
}

// formatCells joins resolved identifiers. Header cells also show spans.
func formatCells(cells []htmldoc.TableCell, spans bool) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		s := c.Identifier
		if spans && (c.ColSpan > 1 || c.RowSpan > 1) {
			s += fmt.Sprintf(" (colspan=%d rowspan=%d)", c.ColSpan, c.RowSpan)
		}
		out[i] = s
	}
	return strings.Join(out, " | ")
}
