//go:build linux

package driver

import (
	"io/fs"
	"syscall"
)

func ownerOf(info fs.FileInfo) (int, int) {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return int(stat.Uid), int(stat.Gid)
	}
	return -1, -1
}

func extraTimesOf(info fs.FileInfo) (crtime, ctime, atime int64) {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return 0, stat.Ctim.Sec, stat.Atim.Sec
	}
	return 0, 0, 0
}
