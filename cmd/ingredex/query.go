package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sleepwiki/ingredex/dataset"
	"github.com/sleepwiki/ingredex/format"
	"github.com/sleepwiki/ingredex/internal/config"
	"github.com/sleepwiki/ingredex/internal/export"
	"github.com/sleepwiki/ingredex/internal/normalize"
	"github.com/sleepwiki/ingredex/model"
	"github.com/sleepwiki/ingredex/query"
)

type queryFlags struct {
	data   string
	sqlite string
	limit  int
	json   bool
}

func newQueryCmd() *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "query [ingredient]",
		Short: "Rank characters by ingredient yield",
		Long: "Without arguments, lists every ingredient in the dataset. With an ingredient, lists the " +
			"characters that can get it at level 60, best yield first, with the slot it fills.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ingredient := ""
			if len(args) == 1 {
				ingredient = args[0]
			}
			return runQuery(cmd, ingredient, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.data, "data", "d", "", "Entity dataset, JSON or SQLite (default: from config)")
	cmd.Flags().StringVar(&flags.sqlite, "sqlite", "", "Read the dataset from this SQLite database instead")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", 0, "Maximum number of results (0 for all)")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print results as JSON")

	return cmd
}

func runQuery(cmd *cobra.Command, ingredient string, flags queryFlags) error {
	if flags.limit < 0 {
		return fmt.Errorf("invalid limit %d", flags.limit)
	}

	a, err := loadApp(cmd, func(cfg *config.Config) {
		if flags.data != "" {
			cfg.Output.Entities = flags.data
		}
	})
	if err != nil {
		return err
	}

	entities, err := loadEntities(cmd, a, flags.sqlite)
	if err != nil {
		return err
	}

	if ingredient == "" {
		return printIngredients(a, query.Ingredients(entities), flags.json)
	}

	ingredient = normalize.Text(ingredient)
	matches := query.Rank(entities, ingredient)
	if flags.limit > 0 && len(matches) > flags.limit {
		matches = matches[:flags.limit]
	}

	if flags.json {
		if matches == nil {
			matches = []query.Match{}
		}
		return encodeJSON(a, matches)
	}

	if len(matches) == 0 {
		fmt.Fprintf(a.out, "No character gets %s at Lv.60.\n", ingredient)
		return nil
	}

	fmt.Fprintf(a.out, "Found %d characters for %s:\n\n", len(matches), ingredient)
	for i, m := range matches {
		fmt.Fprintf(a.out, "%2d. %s (#%d) %s %g", i+1, m.Entity.Name, m.Entity.ID, m.Pattern, m.Value)
		if m.Role != query.RoleNone {
			fmt.Fprintf(a.out, " [%s]", m.Role)
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

// loadEntities reads the dataset from the SQLite database when one is
// given, otherwise from the dataset file. The dataset file may itself be a
// SQLite store written by parse.
func loadEntities(cmd *cobra.Command, a *app, sqlitePath string) ([]model.Entity, error) {
	if sqlitePath != "" {
		if _, err := os.Stat(sqlitePath); err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return loadStore(cmd, a, sqlitePath)
	}

	path := a.cfg.Output.Entities
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	f, err := format.DetectFile(path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	switch f {
	case format.SQLite:
		return loadStore(cmd, a, path)
	case format.JSON, format.Unknown:
		entities, err := dataset.Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return entities, nil
	default:
		return nil, fmt.Errorf("%s is %s, not an entity dataset; run parse first", path, f)
	}
}

func loadStore(cmd *cobra.Command, a *app, path string) ([]model.Entity, error) {
	store, err := export.OpenSQLite(path, a.logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(cmd.Context())
}

func printIngredients(a *app, ingredients []string, asJSON bool) error {
	if asJSON {
		if ingredients == nil {
			ingredients = []string{}
		}
		return encodeJSON(a, ingredients)
	}
	for _, ing := range ingredients {
		fmt.Fprintln(a.out, ing)
	}
	return nil
}

func encodeJSON(a *app, v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
