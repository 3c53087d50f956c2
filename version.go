package palette

import _ "embed"

// Version is the release of the palette module.
//
//go:embed VERSION
var Version string
