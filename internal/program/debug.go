package program

import (
	"github.com/davecgh/go-spew/spew"
)

var dumper = spew.ConfigState{Indent: "  ", MaxDepth: 6, DisablePointerAddresses: true}

// DumpString renders a value for debug output. Depth-limited so cyclic
// trait structures stay readable.
func DumpString(v interface{}) string {
	return dumper.Sdump(v)
}
