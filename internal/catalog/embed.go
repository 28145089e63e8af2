package catalog

import "embed"

// GamesFS holds the built-in game definitions.
//
//go:embed games/*.yaml
var GamesFS embed.FS
