package summit

import (
	"embed"
)

// WebAssets contains the embedded HTML templates and static files for the web UI.
//
//go:embed all:web
var WebAssets embed.FS
