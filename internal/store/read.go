package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/snapquery/internal/circuit"
	"github.com/roach88/snapquery/internal/frame"
	"github.com/roach88/snapquery/internal/nodeset"
)

// ErrPopulationNotFound is returned when a named population is not stored.
var ErrPopulationNotFound = errors.New("population not found")

// PopulationInfo describes a stored population.
type PopulationInfo struct {
	Name       string     `json:"name"`
	Kind       frame.Kind `json:"kind"`
	Size       int        `json:"size"`
	Properties []string   `json:"properties"`

	id    int64
	table string
}

// ListPopulations returns the stored populations ordered by name.
// Returns an empty slice (not nil) if none are stored.
func (s *Store) ListPopulations(ctx context.Context) ([]PopulationInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM populations ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query populations: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan population: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate populations: %w", err)
	}
	rows.Close()

	infos := make([]PopulationInfo, 0, len(names))
	for _, name := range names {
		info, err := s.PopulationInfo(ctx, name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// PopulationInfo returns the catalog entry of the population called name.
func (s *Store) PopulationInfo(ctx context.Context, name string) (PopulationInfo, error) {
	info := PopulationInfo{Name: name}
	var kind string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, size, table_name FROM populations WHERE name = ?
	`, name).Scan(&info.id, &kind, &info.Size, &info.table)
	if errors.Is(err, sql.ErrNoRows) {
		return PopulationInfo{}, fmt.Errorf("%w: %q", ErrPopulationNotFound, name)
	}
	if err != nil {
		return PopulationInfo{}, fmt.Errorf("query population %q: %w", name, err)
	}
	info.Kind = frame.Kind(kind)

	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM population_columns WHERE population_id = ? ORDER BY position ASC
	`, info.id)
	if err != nil {
		return PopulationInfo{}, fmt.Errorf("query properties of %q: %w", name, err)
	}
	defer rows.Close()

	info.Properties = []string{}
	for rows.Next() {
		var prop string
		if err := rows.Scan(&prop); err != nil {
			return PopulationInfo{}, fmt.Errorf("scan property of %q: %w", name, err)
		}
		info.Properties = append(info.Properties, prop)
	}
	if err := rows.Err(); err != nil {
		return PopulationInfo{}, fmt.Errorf("iterate properties of %q: %w", name, err)
	}
	return info, nil
}

// LoadTable reads the rows of the population called name into a frame.
func (s *Store) LoadTable(ctx context.Context, name string) (*frame.Frame, error) {
	info, err := s.PopulationInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	types, err := s.declaredTypes(ctx, info.table)
	if err != nil {
		return nil, fmt.Errorf("load population %q: %w", name, err)
	}

	buffers := make([]*columnBuffer, len(info.Properties))
	sqlColumns := []string{"_id"}
	for pos, prop := range info.Properties {
		typ, ok := types[dataColumn(pos)]
		if !ok {
			return nil, fmt.Errorf("load population %q: property %q has no data column", name, prop)
		}
		buffers[pos] = &columnBuffer{typ: typ}
		sqlColumns = append(sqlColumns, dataColumn(pos))
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY _row ASC", strings.Join(sqlColumns, ", "), info.table,
	))
	if err != nil {
		return nil, fmt.Errorf("load population %q: %w", name, err)
	}
	defer rows.Close()

	ids := make([]int64, 0, info.Size)
	dest := make([]any, len(sqlColumns))
	var id int64
	dest[0] = &id
	for rows.Next() {
		for pos, buf := range buffers {
			dest[pos+1] = buf.dest()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("load population %q: row %d: %w", name, len(ids), err)
		}
		ids = append(ids, id)
		for _, buf := range buffers {
			buf.push()
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load population %q: %w", name, err)
	}

	columns := make([]frame.NamedColumn, len(buffers))
	for pos, buf := range buffers {
		columns[pos] = frame.NamedColumn{Name: info.Properties[pos], Column: buf.column()}
	}
	f, err := frame.New(ids, columns...)
	if err != nil {
		return nil, fmt.Errorf("load population %q: %w", name, err)
	}

	slog.Debug("population loaded",
		"population", name,
		"kind", info.Kind,
		"rows", f.Len(),
	)
	return f, nil
}

// declaredTypes maps the data columns of table to their property types.
func (s *Store) declaredTypes(ctx context.Context, table string) (map[string]frame.ColumnType, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	types := make(map[string]frame.ColumnType)
	for rows.Next() {
		var (
			cid      int
			name     string
			declared string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &declared, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		if strings.HasPrefix(name, "_") {
			continue
		}
		typ, err := columnTypeOf(declared)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		types[name] = typ
	}
	return types, rows.Err()
}

// LoadNodeSets reads the stored node sets in file order.
func (s *Store) LoadNodeSets(ctx context.Context) (*nodeset.Registry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, definition FROM node_sets ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query node sets: %w", err)
	}
	defer rows.Close()

	var entries []nodeset.Entry
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("scan node set: %w", err)
		}
		def, err := unmarshalDefinition(name, data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, nodeset.Entry{Name: name, Definition: def})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate node sets: %w", err)
	}
	return nodeset.NewRegistry(entries...)
}

// LoadPopulation loads the population called name with the stored node
// sets attached. Node sets only apply to node populations.
func (s *Store) LoadPopulation(ctx context.Context, name string, opts ...circuit.Option) (*circuit.Population, error) {
	info, err := s.PopulationInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	t, err := s.LoadTable(ctx, name)
	if err != nil {
		return nil, err
	}

	if info.Kind == frame.KindNode {
		reg, err := s.LoadNodeSets(ctx)
		if err != nil {
			return nil, fmt.Errorf("load population %q: %w", name, err)
		}
		opts = append([]circuit.Option{circuit.WithNodeSets(reg)}, opts...)
	}
	return circuit.NewPopulation(name, info.Kind, t, opts...), nil
}
