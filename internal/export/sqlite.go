package export

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/sleepwiki/ingredex/model"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists a decoded dataset in an SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Import describes the last dataset written by Replace.
type Import struct {
	At       time.Time
	Entities int
	Fallback bool
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps the pragmas below in effect for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Replace swaps the stored dataset for entities in one transaction. Readers
// see either the previous dataset or the new one, never a mix.
func (s *SQLiteStore) Replace(ctx context.Context, entities []model.Entity, info Import) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"pattern_values", "pattern_ingredients", "patterns", "levels", "entities", "imports"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, e := range entities {
		if err = insertEntity(ctx, tx, e); err != nil {
			return fmt.Errorf("insert entity %d (%s): %w", e.ID, e.Name, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO imports (id, imported_at, entities, fallback) VALUES (1, ?, ?, ?)`,
		info.At.UTC().Format(time.RFC3339Nano), len(entities), info.Fallback)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("sqlite dataset replaced", "entities", len(entities))
	return nil
}

func insertEntity(ctx context.Context, tx *sql.Tx, e model.Entity) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO entities (id, name) VALUES (?, ?)`, e.ID, e.Name); err != nil {
		return err
	}

	for level, lv := range e.Levels {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO levels (entity_id, level, value) VALUES (?, ?, ?)`,
			e.ID, int(level), lv.Value); err != nil {
			return err
		}
	}

	for code, p := range e.IngredientPatterns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO patterns (entity_id, code, total_value) VALUES (?, ?, ?)`,
			e.ID, string(code), p.TotalValue); err != nil {
			return err
		}
		for slot, ing := range p.Ingredients {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pattern_ingredients (entity_id, code, slot, ingredient) VALUES (?, ?, ?, ?)`,
				e.ID, string(code), slot, ing); err != nil {
				return err
			}
		}
		for ing, v := range p.IndividualValues {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pattern_values (entity_id, code, ingredient, value) VALUES (?, ?, ?, ?)`,
				e.ID, string(code), ing, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads the stored dataset back in id order.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM entities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}

	var entities []model.Entity
	index := make(map[int]int)
	for rows.Next() {
		e := model.Entity{
			Levels:             make(map[model.Level]model.LevelValue),
			IngredientPatterns: make(map[model.PatternCode]model.PatternRecord),
		}
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		index[e.ID] = len(entities)
		entities = append(entities, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}

	err = s.each(ctx, `SELECT entity_id, level, value FROM levels`, func(sc scanner) error {
		var (
			id    int
			level int
			value float64
		)
		if err := sc.Scan(&id, &level, &value); err != nil {
			return err
		}
		entities[index[id]].Levels[model.Level(level)] = model.LevelValue{Value: value}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load levels: %w", err)
	}

	err = s.each(ctx, `SELECT entity_id, code, total_value FROM patterns`, func(sc scanner) error {
		var (
			id    int
			code  string
			total float64
		)
		if err := sc.Scan(&id, &code, &total); err != nil {
			return err
		}
		entities[index[id]].IngredientPatterns[model.PatternCode(code)] = model.PatternRecord{
			IndividualValues: make(map[string]float64),
			TotalValue:       total,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}

	err = s.each(ctx, `SELECT entity_id, code, ingredient FROM pattern_ingredients ORDER BY entity_id, code, slot`, func(sc scanner) error {
		var (
			id        int
			code, ing string
		)
		if err := sc.Scan(&id, &code, &ing); err != nil {
			return err
		}
		patterns := entities[index[id]].IngredientPatterns
		p := patterns[model.PatternCode(code)]
		p.Ingredients = append(p.Ingredients, ing)
		patterns[model.PatternCode(code)] = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}

	err = s.each(ctx, `SELECT entity_id, code, ingredient, value FROM pattern_values`, func(sc scanner) error {
		var (
			id        int
			code, ing string
			value     float64
		)
		if err := sc.Scan(&id, &code, &ing, &value); err != nil {
			return err
		}
		entities[index[id]].IngredientPatterns[model.PatternCode(code)].IndividualValues[ing] = value
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}

	return entities, nil
}

// LastImport returns the metadata recorded by the last Replace, or
// sql.ErrNoRows when the database has never been filled.
func (s *SQLiteStore) LastImport(ctx context.Context) (Import, error) {
	var (
		info Import
		at   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT imported_at, entities, fallback FROM imports WHERE id = 1`).
		Scan(&at, &info.Entities, &info.Fallback)
	if err != nil {
		return info, err
	}
	info.At, err = time.Parse(time.RFC3339Nano, at)
	return info, err
}

type scanner interface{ Scan(dest ...any) error }

func (s *SQLiteStore) each(ctx context.Context, query string, fn func(scanner) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
