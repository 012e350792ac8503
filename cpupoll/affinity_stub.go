//go:build !linux

package cpupoll

// setAffinity is a no-op outside Linux; the gateway still runs, it just
// doesn't get dedicated cores.
func setAffinity(cpu int) {}
