// Package scripts holds the default Risor hook scripts.
package scripts

import "embed"

// FS contains every default hook script, at the root of the filesystem.
//
//go:embed *.risor
var FS embed.FS
