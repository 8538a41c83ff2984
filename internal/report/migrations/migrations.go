// Package migrations embeds the result store schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
