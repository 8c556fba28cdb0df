// Package appfs embeds the console assets: help pages, database migrations, page templates and static files.
package appfs

import "embed"

//go:embed help migrations templates static
var FS embed.FS
