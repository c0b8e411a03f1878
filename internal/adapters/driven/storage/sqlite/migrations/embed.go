// Package migrations holds the documents and chunks schema, applied in
// filename order by the SQLite store.
package migrations

import "embed"

// FS holds the numbered up and down migrations.
//
//go:embed *.up.sql *.down.sql
var FS embed.FS
