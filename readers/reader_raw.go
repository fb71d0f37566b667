package readers

import (
	"errors"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

type RawReader struct {
	PathToEvidenceFiles string
	fd                  *os.File
}

func (imgreader *RawReader) CreateHandler() error {
	file, err := os.Open(imgreader.PathToEvidenceFiles)
	if err != nil {
		return err
	}
	imgreader.fd = file
	return nil
}

func (imgreader RawReader) CloseHandler() {
	if imgreader.fd != nil {
		imgreader.fd.Close()
	}
}

func (imgreader RawReader) ReadFile(physicalOffset int64, length int) ([]byte, error) {
	data := make([]byte, length)
	read, err := imgreader.fd.ReadAt(data, physicalOffset)
	log.Debugf("raw read: offset %d len %d got %d", physicalOffset, length, read)
	if err != nil {
		if errors.Is(err, io.EOF) && read > 0 {
			return data[:read], nil
		}
		log.Errorf("raw read failed at offset %d: %v", physicalOffset, err)
		return nil, err
	}
	return data, nil
}

func (imgreader RawReader) GetDiskSize() int64 {
	finfo, err := imgreader.fd.Stat()
	if err != nil {
		return -1
	}
	return finfo.Size()
}
