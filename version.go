package funnel

import _ "embed"

// Version is the release of the library and the funnel CLI.
//
//go:embed VERSION
var Version string
