// Package migrations embeds SQL migration files into the binary.
//
// The database package reads them through FS, so the service can migrate
// without the SQL files being present on disk.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed *.sql
var files embed.FS

// FS exposes the embedded migration files at the root of the filesystem.
var FS fs.FS = files
