// Package store persists populations and node sets in SQLite.
//
// A store holds:
//   - populations: the catalog of stored populations (name, kind, size)
//   - population_columns: each population's property names
//   - one data table per population, rows in table order
//   - node_sets: node-set definitions in file order
//
// # Property Types
//
// Data tables declare a SQLite type per property. Loading maps them back
// to frame columns:
//
//	REAL          -> float
//	INTEGER       -> int
//	TEXT          -> string
//	CATEGORY_TEXT -> categorical (stored as TEXT values)
//	BOOLEAN       -> bool (stored as 0 / 1)
//
// Property names are kept in population_columns; data tables use
// generated column names so any property name can be stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The store only provides tables. Query results are never persisted.
package store
