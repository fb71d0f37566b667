//go:build windows

package driver

import (
	"io/fs"
	"syscall"
)

// Windows has no numeric owner ids.
func ownerOf(info fs.FileInfo) (int, int) {
	return -1, -1
}

func extraTimesOf(info fs.FileInfo) (crtime, ctime, atime int64) {
	if data, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return data.CreationTime.Nanoseconds() / 1e9, 0, data.LastAccessTime.Nanoseconds() / 1e9
	}
	return 0, 0, 0
}
