// Package dbmigrations exposes embedded SQL migrations for backtest binaries.
package dbmigrations

import "embed"

// Files contains the embedded SQL migrations bundled into backtest binaries.
//
//go:embed *.sql
var Files embed.FS
