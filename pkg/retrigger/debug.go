package retrigger

import "os"

// DebugEnabled controls whether or not debug-level logging is enabled. It is
// set automatically based on the RETRIGGER_DEBUG environment variable.
var DebugEnabled bool

func init() {
	DebugEnabled = os.Getenv("RETRIGGER_DEBUG") == "1"
}
