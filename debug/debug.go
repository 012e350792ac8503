// Package debug carries the gateway's two logging registers: a
// zero-allocation helper for the hot/cold connection-state path, and a
// humanized summary printer for bootstrap and shutdown reporting.
package debug

import "mdgw/utils"

// DropError logs an error without going through the standard library's
// buffered, formatted logger. Used only on cold paths — dial failures,
// TLS handshake errors, decrypt failures logged and skipped per the
// TransientReadError policy.
//
//go:nosplit
//go:inline
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
	} else {
		utils.PrintWarning(prefix + "\n")
	}
}

// DropMessage logs a cold-path diagnostic message: connection state
// transitions, handshake completion, subscribe-frame emission.
//
//go:nosplit
//go:inline
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}
