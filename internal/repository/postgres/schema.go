package postgres

import _ "embed"

// Schema creates the tables the lease store reads and writes. It is
// idempotent.
//
//go:embed schema.sql
var Schema string
