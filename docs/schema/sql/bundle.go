// Package sqldocs exposes the warehouse DDL directly from the docs tree.
package sqldocs

import _ "embed"

// SQLite contains the warehouse DDL for SQLite.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the warehouse DDL for Postgres.
//
//go:embed postgres.sql
var Postgres string
