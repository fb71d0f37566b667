//go:build windows

package readers

import (
	"fmt"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

const chunkSize = 512 * 1024 * 1024 // 512 MB

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procSetFilePointerEx = kernel32.NewProc("SetFilePointerEx")
)

type DISK_GEOMETRY struct {
	Cylinders         int64
	MediaType         int32
	TracksPerCylinder int32
	SectorsPerTrack   int32
	BytesPerSector    int32
}

type WindowsReader struct {
	a_file string
	fd     windows.Handle
}

func newPhysicalDriveReader(pathToDrive string) (DiskReader, error) {
	return &WindowsReader{a_file: pathToDrive}, nil
}

func (winreader *WindowsReader) CreateHandler() error {
	file_ptr, err := windows.UTF16PtrFromString(winreader.a_file)
	if err != nil {
		return err
	}
	var templateHandle windows.Handle
	fd, err := windows.CreateFile(file_ptr, windows.GENERIC_READ,
		windows.FILE_SHARE_READ, nil,
		windows.OPEN_EXISTING, windows.FILE_FLAG_SEQUENTIAL_SCAN, templateHandle)
	if err != nil {
		return fmt.Errorf("opening %s: %w", winreader.a_file, err)
	}
	winreader.fd = fd
	return nil
}

func (winreader WindowsReader) CloseHandler() {
	windows.Close(winreader.fd)
}

func (winreader WindowsReader) GetDiskSize() int64 {
	const IOCTL_DISK_GET_DRIVE_GEOMETRY = 0x70000
	const nByte_DISK_GEOMETRY = 24
	disk_geometry := DISK_GEOMETRY{}

	var junk *uint32
	var inBuffer *byte
	err := windows.DeviceIoControl(winreader.fd, IOCTL_DISK_GET_DRIVE_GEOMETRY,
		inBuffer, 0, (*byte)(unsafe.Pointer(&disk_geometry)), nByte_DISK_GEOMETRY, junk, nil)
	if err != nil {
		log.Errorf("drive geometry ioctl failed for %s: %v", winreader.a_file, err)
		return -1
	}

	return disk_geometry.Cylinders * int64(disk_geometry.TracksPerCylinder) *
		int64(disk_geometry.SectorsPerTrack) * int64(disk_geometry.BytesPerSector)
}

func (winreader WindowsReader) ReadFile(startOffset int64, totalSize int) ([]byte, error) {
	wholebuffer := make([]byte, 0, totalSize)
	bytesRead := uint32(0)
	offset := int64(0)

	for len(wholebuffer) < totalSize {
		err := setFilePointerEx(winreader.fd, offset+startOffset, windows.FILE_BEGIN)
		if err != nil {
			return nil, fmt.Errorf("seek failed at offset %d: %w", offset+startOffset, err)
		}

		toRead := chunkSize
		if totalSize-len(wholebuffer) < chunkSize {
			toRead = totalSize - len(wholebuffer)
		}

		buffer := make([]byte, toRead)
		err = windows.ReadFile(winreader.fd, buffer, &bytesRead, nil)
		if err != nil {
			log.Errorf("read failed at offset %d: %v", offset+startOffset, err)
			return nil, err
		}
		if bytesRead == 0 {
			break
		}

		wholebuffer = append(wholebuffer, buffer[:bytesRead]...)
		offset += int64(bytesRead)
	}
	return wholebuffer, nil
}

func setFilePointerEx(handle windows.Handle, distance int64, moveMethod uint32) error {
	var newPos int64
	r1, _, err := procSetFilePointerEx.Call(
		uintptr(handle),
		uintptr(distance),
		uintptr(unsafe.Pointer(&newPos)),
		uintptr(moveMethod),
	)
	if r1 == 0 {
		return err
	}
	return nil
}
