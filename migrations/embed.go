// Package migrations embeds the numbered SQL files applied by `cds-engine migrate`.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
