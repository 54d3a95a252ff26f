// Package migrations содержит SQL миграции postgres, встроенные в бинарник
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
