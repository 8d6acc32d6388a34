//go:build !windows

package file

// markHidden is a no-op on Unix-like systems; the dot prefix of the
// shelf directory already hides it.
func markHidden(string) error {
	return nil
}
