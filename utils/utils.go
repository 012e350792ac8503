package utils

import (
	"os"
)

///////////////////////////////////////////////////////////////////////////////
// Cold-Path Output — No fmt, No Heap Pressure
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg to stderr directly, bypassing the standard
// library's buffered log writer. Used only from debug.DropError and
// debug.DropMessage, both cold paths (connection state changes,
// bootstrap diagnostics) where the extra syscall is irrelevant but
// pulling in log's formatting machinery is not worth it.
//
//go:nosplit
//go:inline
func PrintWarning(msg string) {
	os.Stderr.WriteString(msg)
}
