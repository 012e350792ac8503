//go:build linux

package cpupoll

import "golang.org/x/sys/unix"

// setAffinity pins the current thread to cpu (0-based) using the real
// unix.Sched*Affinity wrapper rather than a raw syscall, since x/sys/unix
// is already a direct dependency of this module.
func setAffinity(cpu int) {
	if cpu < 0 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}
