package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/snapquery/internal/frame"
	"github.com/roach88/snapquery/internal/nodeset"
)

// WritePopulation stores t as the population called name, replacing any
// population of that name. Rows keep their table order.
func (s *Store) WritePopulation(ctx context.Context, name string, kind frame.Kind, t frame.Table) error {
	if name == "" {
		return fmt.Errorf("write population: name must not be empty")
	}
	if kind != frame.KindNode && kind != frame.KindEdge {
		return fmt.Errorf("write population %q: invalid kind %q", name, kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write population %q: %w", name, err)
	}
	defer tx.Rollback() // no-op after Commit

	if err := deletePopulation(ctx, tx, name); err != nil && !errors.Is(err, ErrPopulationNotFound) {
		return fmt.Errorf("write population %q: %w", name, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO populations (name, kind, size, table_name)
		VALUES (?, ?, ?, ?)
	`, name, string(kind), t.Len(), "pending:"+name)
	if err != nil {
		return fmt.Errorf("write population %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("write population %q: %w", name, err)
	}
	table := dataTable(id)
	if _, err := tx.ExecContext(ctx, `UPDATE populations SET table_name = ? WHERE id = ?`, table, id); err != nil {
		return fmt.Errorf("write population %q: %w", name, err)
	}

	names := t.ColumnNames()
	columns := make([]frame.Column, len(names))
	defs := []string{"_row INTEGER PRIMARY KEY", "_id INTEGER NOT NULL UNIQUE"}
	for pos, prop := range names {
		col, _ := t.Column(prop)
		declared, err := sqlType(col.Type())
		if err != nil {
			return fmt.Errorf("write population %q: property %q: %w", name, prop, err)
		}
		columns[pos] = col
		defs = append(defs, dataColumn(pos)+" "+declared+" NOT NULL")

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO population_columns (population_id, position, name, sql_column)
			VALUES (?, ?, ?, ?)
		`, id, pos, prop, dataColumn(pos)); err != nil {
			return fmt.Errorf("write population %q: property %q: %w", name, prop, err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("write population %q: create table: %w", name, err)
	}

	if err := insertRows(ctx, tx, table, t, columns); err != nil {
		return fmt.Errorf("write population %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write population %q: commit: %w", name, err)
	}

	slog.Debug("population stored",
		"population", name,
		"kind", kind,
		"rows", t.Len(),
		"properties", len(names),
	)
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, t frame.Table, columns []frame.Column) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)+2), ", ")
	sqlColumns := []string{"_row", "_id"}
	for pos := range columns {
		sqlColumns = append(sqlColumns, dataColumn(pos))
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(sqlColumns, ", "), placeholders,
	))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(columns)+2)
	for row, id := range t.IDs() {
		args[0] = row
		args[1] = id
		for pos, col := range columns {
			args[pos+2] = frame.ValueAt(col, row)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d (id %d): %w", row, id, err)
		}
	}
	return nil
}

// DeletePopulation removes the population called name and its rows.
// Returns ErrPopulationNotFound if there is no such population.
func (s *Store) DeletePopulation(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete population %q: %w", name, err)
	}
	defer tx.Rollback()

	if err := deletePopulation(ctx, tx, name); err != nil {
		return fmt.Errorf("delete population %q: %w", name, err)
	}
	return tx.Commit()
}

func deletePopulation(ctx context.Context, tx *sql.Tx, name string) error {
	var (
		id    int64
		table string
	)
	err := tx.QueryRowContext(ctx, `SELECT id, table_name FROM populations WHERE name = ?`, name).Scan(&id, &table)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPopulationNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	// population_columns rows are removed by ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, `DELETE FROM populations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete catalog entry: %w", err)
	}
	return nil
}

// WriteNodeSets replaces the stored node sets with the definitions of reg.
func (s *Store) WriteNodeSets(ctx context.Context, reg *nodeset.Registry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write node sets: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM node_sets`); err != nil {
		return fmt.Errorf("write node sets: %w", err)
	}

	for pos, name := range reg.Names() {
		ns, _ := reg.Get(name)
		def, err := marshalDefinition(ns.Definition())
		if err != nil {
			return fmt.Errorf("write node set %q: %w", name, err)
		}
		hash, err := ns.Hash()
		if err != nil {
			return fmt.Errorf("write node set %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO node_sets (name, position, definition, hash)
			VALUES (?, ?, ?, ?)
		`, name, pos, def, hash); err != nil {
			return fmt.Errorf("write node set %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write node sets: commit: %w", err)
	}
	slog.Debug("node sets stored", "count", reg.Len())
	return nil
}
