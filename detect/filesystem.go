package detect

import (
	"encoding/binary"

	"github.com/aarsakian/CryptoTriage/driver"
	"github.com/aarsakian/CryptoTriage/model"
)

const (
	extMagic                   = 0xEF53
	extFeatureCompatHasJournal = 0x0004
	extFeatureIncompatExtents  = 0x0040
	extFeatureIncompat64Bit    = 0x0080
	extFeatureIncompatFlexBG   = 0x0200

	ufs1Magic = 0x00011954
	ufs2Magic = 0x19540119
)

// SignatureFSDetector recognizes filesystems from their boot sector and
// superblock magics. When no magic matches it asks the driver for a
// filesystem handle, directory sources answer through that path.
type SignatureFSDetector struct {
	driver driver.DataSourceDriver
}

func NewFilesystemDetector(drv driver.DataSourceDriver) *SignatureFSDetector {
	return &SignatureFSDetector{driver: drv}
}

func (detector *SignatureFSDetector) SupportedFilesystems() []model.FileSystemType {
	return []model.FileSystemType{
		model.FSNtfs, model.FSExfat, model.FSFat12, model.FSFat16, model.FSFat32,
		model.FSExt2, model.FSExt3, model.FSExt4, model.FSBtrfs, model.FSApfs,
		model.FSHfsPlus, model.FSIso9660, model.FSUfs,
	}
}

func (detector *SignatureFSDetector) DetectFilesystem(volume *model.Volume) (model.FileSystemType, error) {
	if fstype := detector.probeMagic(volume); fstype != model.FSUnknown {
		return fstype, nil
	}
	handle, err := detector.driver.OpenFilesystem(volume)
	if err != nil {
		return model.FSUnknown, nil
	}
	defer handle.Close()
	return handle.Type(), nil
}

func (detector *SignatureFSDetector) probeMagic(volume *model.Volume) model.FileSystemType {
	read := func(offset int64, size int) []byte {
		data, err := detector.driver.Read(volume.Offset+offset, size)
		if err != nil {
			return nil
		}
		return data
	}

	if data := read(0, 512); len(data) >= 512 {
		switch {
		case string(data[3:7]) == "NTFS":
			return model.FSNtfs
		case string(data[3:8]) == "EXFAT":
			return model.FSExfat
		case string(data[82:87]) == "FAT32":
			return model.FSFat32
		case string(data[54:59]) == "FAT12":
			return model.FSFat12
		case string(data[54:59]) == "FAT16":
			return model.FSFat16
		case string(data[32:36]) == "NXSB":
			return model.FSApfs
		}
	}

	// ext superblock and the HFS+ volume header share the 1024 byte offset,
	// the two byte ext magic is checked first as the more specific one.
	if data := read(1024, 1024); len(data) >= 104 {
		if binary.LittleEndian.Uint16(data[56:58]) == extMagic {
			return extVariant(data)
		}
		switch string(data[0:2]) {
		case "H+", "HX":
			return model.FSHfsPlus
		}
	}

	if data := read(65536, 1376); len(data) >= 72 {
		if string(data[64:72]) == "_BHRfS_M" {
			return model.FSBtrfs
		}
		if len(data) >= 1376 && binary.LittleEndian.Uint32(data[1372:1376]) == ufs2Magic {
			return model.FSUfs
		}
	}

	if data := read(32768, 2048); len(data) >= 6 {
		if string(data[1:6]) == "CD001" {
			return model.FSIso9660
		}
	}

	if data := read(8192, 1376); len(data) >= 1376 {
		if binary.LittleEndian.Uint32(data[1372:1376]) == ufs1Magic {
			return model.FSUfs
		}
	}

	return model.FSUnknown
}

func extVariant(superblock []byte) model.FileSystemType {
	compat := binary.LittleEndian.Uint32(superblock[92:96])
	incompat := binary.LittleEndian.Uint32(superblock[96:100])
	if incompat&(extFeatureIncompatExtents|extFeatureIncompat64Bit|extFeatureIncompatFlexBG) != 0 {
		return model.FSExt4
	}
	if compat&extFeatureCompatHasJournal != 0 {
		return model.FSExt3
	}
	return model.FSExt2
}
