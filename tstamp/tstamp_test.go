package tstamp

import "testing"

func TestFromKernel(t *testing.T) {
	got := FromKernel(1700000000, 500000)
	if got.Unix() != 1700000000 {
		t.Fatalf("unix seconds mismatch: %v", got.Unix())
	}
	if got.Nanosecond() != 500000*1000 {
		t.Fatalf("sub-second component mismatch: %v", got.Nanosecond())
	}
}

func TestNowMonotonic(t *testing.T) {
	a := Now()
	b := Now()
	if b.Before(a) {
		t.Fatalf("time moved backwards: %v before %v", b, a)
	}
}
