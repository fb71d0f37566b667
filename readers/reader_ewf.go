package readers

import (
	"fmt"
	"path"
	"strings"

	ewfLib "github.com/aarsakian/EWF_Reader/ewf"
	ewfutils "github.com/aarsakian/EWF_Reader/ewf/utils"
)

type EWFReader struct {
	PathToEvidenceFiles string
	fd                  ewfLib.EWF_Image
}

func (imgreader *EWFReader) CreateHandler() error {
	extension := path.Ext(imgreader.PathToEvidenceFiles)
	if strings.ToLower(extension) != ".e01" {
		return fmt.Errorf("%s is not an EWF evidence file", imgreader.PathToEvidenceFiles)
	}

	filenames := ewfutils.FindEvidenceFiles(imgreader.PathToEvidenceFiles)
	if len(filenames) == 0 {
		return fmt.Errorf("no evidence segments found for %s", imgreader.PathToEvidenceFiles)
	}

	var ewf_image ewfLib.EWF_Image
	ewf_image.ParseEvidence(filenames)
	imgreader.fd = ewf_image
	return nil
}

func (imgreader EWFReader) CloseHandler() {

}

func (imgreader EWFReader) ReadFile(physicalOffset int64, length int) ([]byte, error) {
	data := imgreader.fd.RetrieveData(physicalOffset, int64(length))
	if data == nil {
		return nil, fmt.Errorf("ewf read failed at offset %d", physicalOffset)
	}
	return data, nil
}

func (imgreader EWFReader) GetDiskSize() int64 {
	return int64(imgreader.fd.Chunksize) * int64(imgreader.fd.NofChunks)
}
