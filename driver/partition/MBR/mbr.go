package MBR

import (
	"errors"
	"fmt"

	"github.com/aarsakian/CryptoTriage/utils"
)

var PartitionTypes = map[uint8]string{
	0x04: "FAT16 <32M",
	0x05: "Extended",
	0x06: "FAT16",
	0x07: "HPFS/NTFS/exFAT",
	0x0b: "W95 FAT32",
	0x0c: "W95 FAT32 (LBA)",
	0x0f: "Extended (LBA)",
	0x27: "Hidden NTFS Win",
	0x82: "Linux swap",
	0x83: "Linux",
	0x8e: "Linux LVM",
	0xaf: "HFS / HFS+",
	0xee: "GPT protective",
}

type MBR struct {
	BootCode           [446]byte //0-445
	Partitions         []Partition
	ExtendedPartitions []ExtendedPartition
	Signature          []byte //510-511
}

type ExtendedPartition struct {
	Partition   *Partition
	TableOffset int
}

type Partition struct {
	Flag     uint8
	StartCHS [3]byte
	Type     uint8
	EndCHS   [3]byte
	StartLBA uint32
	Size     uint32 //sectors
}

func (partition Partition) GetOffset() uint64 {
	return uint64(partition.StartLBA)
}

func (partition Partition) GetSectors() uint64 {
	return uint64(partition.Size)
}

func (partition Partition) GetPartitionType() string {
	name, ok := PartitionTypes[partition.Type]
	if !ok {
		return fmt.Sprintf("type 0x%02x", partition.Type)
	}
	return name
}

func (partition Partition) IsExtended() bool {
	return partition.Type == 0x05 || partition.Type == 0x0f
}

func (extPartition ExtendedPartition) GetOffset() uint64 {
	return uint64(extPartition.Partition.StartLBA) + uint64(extPartition.TableOffset)
}

func (extPartition ExtendedPartition) GetSectors() uint64 {
	return uint64(extPartition.Partition.Size)
}

func (extPartition ExtendedPartition) GetPartitionType() string {
	return extPartition.Partition.GetPartitionType()
}

func (mbr MBR) IsProtective() bool {
	return len(mbr.Partitions) > 0 && mbr.Partitions[0].Type == 0xEE
}

func (mbr MBR) HasValidSignature() bool {
	return utils.Hexify(mbr.Signature) == "55aa"
}

func (mbr MBR) GetPartition(partitionNum int) Partition {
	return mbr.Partitions[partitionNum]
}

func LocatePartitions(data []byte) []Partition {
	pos := 0
	var partitions []Partition
	for pos+16 <= len(data) {
		var partition *Partition = new(Partition)
		utils.Unmarshal(data[pos:pos+16], partition)
		if partition.Type == 0x00 {
			break
		}
		partitions = append(partitions, *partition)
		pos += 16
	}
	return partitions
}

func (mbr *MBR) Parse(buffer []byte) error {
	if len(buffer) < 512 {
		return errors.New("mbr sector truncated")
	}
	copy(mbr.BootCode[:], buffer[:446])
	mbr.Partitions = LocatePartitions(buffer[446:510])
	mbr.Signature = buffer[510:512]
	if !mbr.HasValidSignature() {
		return errors.New("mbr not valid")
	}
	return nil
}

func (mbr *MBR) DiscoverExtendedPartitions(buffer []byte, offset int) {
	if len(buffer) < 510 {
		return
	}
	var extPartitions []ExtendedPartition
	partitions := LocatePartitions(buffer[446:510])
	for idx := range partitions {
		extPartitions = append(extPartitions, ExtendedPartition{Partition: &partitions[idx], TableOffset: offset})
	}
	mbr.ExtendedPartitions = extPartitions
}

func (mbr MBR) GetExtendedPartitionOffset() (int, error) {
	for _, partition := range mbr.Partitions {
		if partition.IsExtended() {
			return int(partition.GetOffset()), nil
		}
	}
	return -1, errors.New("extended partition not found")
}

func (partition Partition) GetInfo() string {
	return fmt.Sprintf(" %s at %d size %d sectors", partition.GetPartitionType(), partition.GetOffset(), partition.Size)
}

func (extPartition ExtendedPartition) GetInfo() string {
	return fmt.Sprintf("\textended partition  %s at %d size %d sectors",
		extPartition.Partition.GetPartitionType(), extPartition.GetOffset(), extPartition.Partition.Size)
}
