//go:build (!amd64 && !arm64) || noasm || nocgo

package cpupoll

//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func cpuRelax() {}
