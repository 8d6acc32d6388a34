//go:build windows

package file

import (
	"golang.org/x/sys/windows"
)

// markHidden sets the hidden attribute on the shelf directory.
// On other platforms the dot prefix is enough.
func markHidden(dir string) error {
	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return err
	}
	return windows.SetFileAttributes(p, attrs|windows.FILE_ATTRIBUTE_HIDDEN)
}
