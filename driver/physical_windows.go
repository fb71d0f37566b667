//go:build windows

package driver

import (
	"fmt"

	"github.com/aarsakian/CryptoTriage/model"
	"golang.org/x/sys/windows"
)

const maxProbedDrives = 16

func enumeratePhysicalDrives() ([]model.Source, error) {
	var sources []model.Source
	for idx := 0; idx < maxProbedDrives; idx++ {
		path := fmt.Sprintf("\\\\.\\PHYSICALDRIVE%d", idx)
		pathptr, err := windows.UTF16PtrFromString(path)
		if err != nil {
			continue
		}
		fd, err := windows.CreateFile(pathptr, windows.GENERIC_READ,
			windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE, nil,
			windows.OPEN_EXISTING, windows.FILE_ATTRIBUTE_NORMAL, 0)
		if err != nil {
			continue
		}
		windows.CloseHandle(fd)
		sources = append(sources, model.Source{
			Identifier:  fmt.Sprintf("physicaldrive%d", idx),
			Kind:        model.SourcePhysicalDisk,
			DisplayName: fmt.Sprintf("Physical drive %d", idx),
			Path:        path,
		})
	}
	return sources, nil
}
