package shaders

import (
	_ "embed"
)

//go:embed fullscreen.wgsl
var FullscreenWGSL string
