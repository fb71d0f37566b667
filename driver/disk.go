package driver

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aarsakian/CryptoTriage/driver/partition/GPT"
	"github.com/aarsakian/CryptoTriage/driver/partition/MBR"
	"github.com/aarsakian/CryptoTriage/model"
	"github.com/aarsakian/CryptoTriage/readers"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const sectorSize = 512

// DiskDriver serves disk images and physical disks. Volumes come from the
// partition tables, a source whose table cannot be parsed is exposed as one
// volume spanning the whole source so that triage can still run against it.
type DiskDriver struct {
	source  *model.Source
	handler readers.DiskReader
	mbr     *MBR.MBR
	gpt     *GPT.GPT
	volumes []*model.Volume
}

func NewDiskDriver() *DiskDriver {
	return &DiskDriver{}
}

func (driver *DiskDriver) Name() string {
	return "disk"
}

func (driver *DiskDriver) Capabilities() Capabilities {
	return Capabilities{
		SupportsPhysicalDisks: true,
		SupportsDiskImages:    true,
		SupportedFormats:      []string{"raw", "dd", "img", "e01", "vmdk"},
	}
}

func (driver *DiskDriver) EnumerateSources() ([]model.Source, error) {
	return enumeratePhysicalDrives()
}

func (driver *DiskDriver) OpenSource(source model.Source) error {
	if source.Kind == model.SourceDirectory {
		return errors.New("disk driver cannot open directory sources")
	}
	if driver.handler != nil {
		driver.Close()
	}
	handler, err := readers.GetHandler(source.Path, readerMode(source))
	if err != nil {
		return errors.Wrapf(err, "failed to open source %s", source.Identifier)
	}
	driver.handler = handler
	driver.source = &source
	if err := driver.discoverVolumes(); err != nil {
		driver.Close()
		return err
	}
	return nil
}

func readerMode(source model.Source) string {
	if source.Kind == model.SourcePhysicalDisk {
		return "physicalDrive"
	}
	switch strings.ToLower(filepath.Ext(source.Path)) {
	case ".e01":
		return "ewf"
	case ".vmdk":
		return "vmdk"
	default:
		return "raw"
	}
}

func (driver *DiskDriver) discoverVolumes() error {
	data, err := driver.handler.ReadFile(0, sectorSize)
	if err != nil {
		return errors.Wrapf(err, "failed to read partition table of %s", driver.source.Identifier)
	}
	if len(data) < sectorSize {
		return errors.Errorf("partition table sector of %s truncated", driver.source.Identifier)
	}
	if name := bootSectorName(data); name != "" {
		log.Infof("%s volume found at sector zero of %s, exposing source as a single volume",
			name, driver.source.Identifier)
		driver.volumes = []*model.Volume{driver.newVolume(1, 0, driver.handler.GetDiskSize())}
		return nil
	}
	var mbr MBR.MBR
	if err := mbr.Parse(data); err != nil {
		log.Warningf("no partition table on %s (%v), exposing source as a single volume",
			driver.source.Identifier, err)
		driver.volumes = []*model.Volume{driver.newVolume(1, 0, driver.handler.GetDiskSize())}
		return nil
	}
	driver.mbr = &mbr
	if mbr.IsProtective() {
		if err := driver.populateGPT(); err != nil {
			log.Warningf("protective mbr on %s but gpt not parsable (%v), exposing source as a single volume",
				driver.source.Identifier, err)
			driver.volumes = []*model.Volume{driver.newVolume(1, 0, driver.handler.GetDiskSize())}
			return nil
		}
		driver.volumes = driver.volumesFromGPT()
		return nil
	}
	if offset, err := mbr.GetExtendedPartitionOffset(); err == nil {
		data, err := driver.handler.ReadFile(int64(offset)*sectorSize, sectorSize)
		if err != nil {
			log.Warningf("failed to read extended partition table of %s: %v", driver.source.Identifier, err)
		} else {
			mbr.DiscoverExtendedPartitions(data, offset)
		}
	}
	driver.volumes = driver.volumesFromMBR(&mbr)
	if len(driver.volumes) == 0 {
		driver.volumes = []*model.Volume{driver.newVolume(1, 0, driver.handler.GetDiskSize())}
	}
	return nil
}

// bootSectorName recognizes filesystem boot sectors living at sector zero.
// Such sources carry a volume directly instead of a partition table.
func bootSectorName(data []byte) string {
	switch {
	case string(data[3:7]) == "NTFS":
		return "NTFS"
	case string(data[3:8]) == "EXFAT":
		return "exFAT"
	case string(data[82:87]) == "FAT32":
		return "FAT32"
	case string(data[54:57]) == "FAT":
		return "FAT"
	}
	return ""
}

func (driver *DiskDriver) populateGPT() error {
	data, err := driver.handler.ReadFile(1*sectorSize, sectorSize)
	if err != nil {
		return errors.Wrap(err, "failed to read gpt header")
	}
	var gpt GPT.GPT
	if err := gpt.ParseHeader(data); err != nil {
		return err
	}
	data, err = driver.handler.ReadFile(int64(gpt.Header.PartitionsStartLBA)*sectorSize,
		int(gpt.GetPartitionArraySize()))
	if err != nil {
		return errors.Wrap(err, "failed to read gpt partition array")
	}
	if err := gpt.ParsePartitions(data); err != nil {
		return err
	}
	driver.gpt = &gpt
	return nil
}

func (driver *DiskDriver) volumesFromGPT() []*model.Volume {
	var volumes []*model.Volume
	for idx, partition := range driver.gpt.Partitions {
		if partition.IsEmpty() || partition.GetSectors() == 0 {
			continue
		}
		volumes = append(volumes, driver.newVolume(idx+1,
			int64(partition.GetOffset())*sectorSize, int64(partition.GetSectors())*sectorSize))
	}
	return volumes
}

// volumesFromMBR numbers every table entry, extended containers and empty
// entries keep their index so identifiers may have gaps.
func (driver *DiskDriver) volumesFromMBR(mbr *MBR.MBR) []*model.Volume {
	var volumes []*model.Volume
	index := 0
	for _, partition := range mbr.Partitions {
		index++
		if partition.IsExtended() || partition.GetSectors() == 0 {
			continue
		}
		volumes = append(volumes, driver.newVolume(index,
			int64(partition.GetOffset())*sectorSize, int64(partition.GetSectors())*sectorSize))
	}
	for _, extPartition := range mbr.ExtendedPartitions {
		index++
		if extPartition.GetSectors() == 0 {
			continue
		}
		volumes = append(volumes, driver.newVolume(index,
			int64(extPartition.GetOffset())*sectorSize, int64(extPartition.GetSectors())*sectorSize))
	}
	return volumes
}

func (driver *DiskDriver) newVolume(index int, offset int64, size int64) *model.Volume {
	return &model.Volume{
		Identifier: fmt.Sprintf("%s:%d", driver.source.Identifier, index),
		Offset:     offset,
		Size:       size,
		Filesystem: model.FSUnknown,
		Encryption: model.EncryptionUnknown,
	}
}

func (driver *DiskDriver) ListVolumes() ([]*model.Volume, error) {
	if driver.handler == nil {
		return nil, ErrNoSource
	}
	return driver.volumes, nil
}

func (driver *DiskDriver) Read(offset int64, size int) ([]byte, error) {
	if driver.handler == nil {
		return nil, ErrNoSource
	}
	if size <= 0 {
		return []byte{}, nil
	}
	return driver.handler.ReadFile(offset, size)
}

// OpenFilesystem is not available for raw media, walking filesystem
// structures is left to mounted directory sources. Raw access still serves
// signature and entropy checks through Read.
func (driver *DiskDriver) OpenFilesystem(volume *model.Volume) (FilesystemHandle, error) {
	if driver.handler == nil {
		return nil, ErrNoSource
	}
	return nil, ErrUnknownFilesystem
}

// PartitionInfo describes the discovered partition layout for display.
func (driver *DiskDriver) PartitionInfo() []string {
	var info []string
	if driver.gpt != nil {
		for _, partition := range driver.gpt.Partitions {
			if partition.IsEmpty() {
				continue
			}
			info = append(info, partition.GetInfo())
		}
		return info
	}
	if driver.mbr != nil {
		for _, partition := range driver.mbr.Partitions {
			info = append(info, partition.GetInfo())
		}
		for _, extPartition := range driver.mbr.ExtendedPartitions {
			info = append(info, extPartition.GetInfo())
		}
	}
	return info
}

func (driver *DiskDriver) Close() error {
	if driver.handler != nil {
		driver.handler.CloseHandler()
		driver.handler = nil
	}
	driver.source = nil
	driver.mbr = nil
	driver.gpt = nil
	driver.volumes = nil
	return nil
}
