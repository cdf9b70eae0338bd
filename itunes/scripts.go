package itunes

import _ "embed"

//go:embed scripts/library.js
var libraryScript string
