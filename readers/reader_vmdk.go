package readers

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	extent "github.com/aarsakian/VMDK_Reader/extent"
)

type VMDKReader struct {
	PathToEvidenceFiles string
	fd                  extent.Extents
}

func (imgreader *VMDKReader) CreateHandler() error {
	extension := path.Ext(imgreader.PathToEvidenceFiles)
	if strings.ToLower(extension) != ".vmdk" {
		return fmt.Errorf("%s is not a VMDK sparse image", imgreader.PathToEvidenceFiles)
	}
	imgreader.fd = extent.ProcessExtents(imgreader.PathToEvidenceFiles)
	return nil
}

func (imgreader VMDKReader) CloseHandler() {

}

func (imgreader VMDKReader) ReadFile(physicalOffset int64, length int) ([]byte, error) {
	data := imgreader.fd.RetrieveData(filepath.Dir(imgreader.PathToEvidenceFiles), physicalOffset, int64(length))
	if data == nil {
		return nil, fmt.Errorf("vmdk read failed at offset %d", physicalOffset)
	}
	return data, nil
}

func (imgreader VMDKReader) GetDiskSize() int64 {
	return imgreader.fd.GetHDSize()
}
