//go:build !windows

package readers

import "errors"

func newPhysicalDriveReader(string) (DiskReader, error) {
	return nil, errors.New("physical drive access is only implemented on windows, open the device node as a raw source instead")
}
