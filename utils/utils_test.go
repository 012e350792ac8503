package utils

import "testing"

func TestPrintWarning_DoesNotPanic(t *testing.T) {
	PrintWarning("control: test warning\n")
}
