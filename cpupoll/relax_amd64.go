//go:build amd64 && !noasm && !nocgo

package cpupoll

/*
#ifdef __x86_64__
static inline void cpu_pause() {
    __asm__ __volatile__("pause" ::: "memory");
}
#else
#error "this file requires x86-64"
#endif
*/
import "C"

//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func cpuRelax() {
	C.cpu_pause()
}
