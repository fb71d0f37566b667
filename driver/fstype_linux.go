//go:build linux

package driver

import (
	"github.com/aarsakian/CryptoTriage/model"
	"golang.org/x/sys/unix"
)

func hostFilesystemType(root string) model.FileSystemType {
	var stat unix.Statfs_t
	if err := unix.Statfs(root, &stat); err != nil {
		return model.FSUnknown
	}
	switch uint32(stat.Type) {
	case 0xEF53:
		return model.FSExt4
	case 0x5346544E:
		return model.FSNtfs
	case 0x9123683E:
		return model.FSBtrfs
	case 0x4D44:
		return model.FSFat32
	case 0x2011BAB0:
		return model.FSExfat
	case 0x9660:
		return model.FSIso9660
	}
	return model.FSUnknown
}
