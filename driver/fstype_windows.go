//go:build windows

package driver

import (
	"path/filepath"
	"strings"

	"github.com/aarsakian/CryptoTriage/model"
	"golang.org/x/sys/windows"
)

func hostFilesystemType(root string) model.FileSystemType {
	volume := filepath.VolumeName(root)
	if volume == "" {
		return model.FSUnknown
	}
	rootPath, err := windows.UTF16PtrFromString(volume + `\`)
	if err != nil {
		return model.FSUnknown
	}
	var fsname [windows.MAX_PATH + 1]uint16
	err = windows.GetVolumeInformation(rootPath, nil, 0, nil, nil, nil,
		&fsname[0], uint32(len(fsname)))
	if err != nil {
		return model.FSUnknown
	}
	switch strings.ToUpper(windows.UTF16ToString(fsname[:])) {
	case "NTFS":
		return model.FSNtfs
	case "FAT32":
		return model.FSFat32
	case "FAT":
		return model.FSFat16
	case "EXFAT":
		return model.FSExfat
	}
	return model.FSUnknown
}
