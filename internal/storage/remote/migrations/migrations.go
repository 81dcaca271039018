// Package migrations embeds the SQL schema of the remote tables, one directory per dialect.
package migrations

import "embed"

//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var FS embed.FS
