package snapshot

import "fmt"

func errNotFound(kind string, v interface{}) error {
	return fmt.Errorf("snapshot: %s %v not present in reference table", kind, v)
}

func errOutOfRange(kind string, ref uint32, n int) error {
	return fmt.Errorf("snapshot: %s reference %d out of range (table has %d entries)", kind, ref, n)
}
