package readers

import "fmt"

// DiskReader hides the container format of a data source behind flat reads
// at physical offsets.
type DiskReader interface {
	CreateHandler() error
	CloseHandler()
	ReadFile(int64, int) ([]byte, error)
	GetDiskSize() int64
}

// GetHandler builds the reader for a source path. Supported modes are
// "raw", "ewf", "vmdk" and "physicalDrive".
func GetHandler(pathToDisk string, mode string) (DiskReader, error) {
	var dr DiskReader
	switch mode {
	case "physicalDrive":
		drive, err := newPhysicalDriveReader(pathToDisk)
		if err != nil {
			return nil, err
		}
		dr = drive
	case "ewf":
		dr = &EWFReader{PathToEvidenceFiles: pathToDisk}
	case "raw":
		dr = &RawReader{PathToEvidenceFiles: pathToDisk}
	case "vmdk":
		dr = &VMDKReader{PathToEvidenceFiles: pathToDisk}
	default:
		return nil, fmt.Errorf("unsupported reader mode %q", mode)
	}
	if err := dr.CreateHandler(); err != nil {
		return nil, err
	}
	return dr, nil
}
