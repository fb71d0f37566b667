package GPT

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/aarsakian/CryptoTriage/utils"
)

var PartitionTypeGuids = map[string]string{
	"C12A7328-F81F-11D2-BA4B-00A0C93EC93B": "EFI System",
	"E3C9E316-0B5C-4DB8-817D-F92DF00215AE": "Microsoft Reserved",
	"EBD0A0A2-B9E5-4433-87C0-68B6B72699C7": "Microsoft Basic Data",
	"DE94BBA4-06D1-4D40-A16A-BFD50179D6AC": "Windows Recovery",
	"0FC63DAF-8483-4772-8E79-3D69D8477DE4": "Linux Filesystem",
	"0657FD6D-A4AB-43C4-84E5-0933C84B4F4F": "Linux Swap",
	"E6D6D379-F507-44C2-A23C-238F2A3DF928": "Linux LVM",
	"CA7D7CCB-63ED-4C53-861C-1742536059CC": "Linux LUKS",
	"7C3457EF-0000-11AA-AA11-00306543ECAC": "Apple APFS",
	"48465300-0000-11AA-AA11-00306543ECAC": "Apple HFS/HFS+",
	"53746F72-6167-11AA-AA11-00306543ECAC": "Apple Core Storage",
	"21686148-6449-6E6F-744E-656564454649": "BIOS Boot",
}

type GPT struct {
	Header     *GPTHeader
	Partitions []Partition
}

type GPTHeader struct {
	StartSignature     [8]byte
	Revision           [4]byte
	HeaderSize         uint32
	HeaderCRC          uint32
	Reserved           [4]byte
	CurrentLBA         uint64
	BackupLBA          uint64
	FirstUsableLBA     uint64
	LastUsableLBA      uint64
	DiskGUID           [16]byte
	PartitionsStartLBA uint64
	NofPartitions      uint32
	PartitionSize      uint32
	PartitionArrayCRC  uint32
}

type Partition struct {
	PartitionTypeGUID [16]byte
	PartitionGUID     [16]byte
	StartLBA          uint64
	EndLBA            uint64
	Attributes        [8]byte
	Name              [72]byte //utf16le
}

func (gpt *GPT) ParseHeader(buffer []byte) error {
	var header GPTHeader
	if err := utils.Unmarshal(buffer, &header); err != nil {
		return err
	}
	if !bytes.Equal(header.StartSignature[:], []byte("EFI PART")) {
		return errors.New("gpt header signature not valid")
	}
	gpt.Header = &header
	return nil
}

func (gpt GPT) GetPartitionArraySize() uint32 {
	return gpt.Header.NofPartitions * gpt.Header.PartitionSize
}

func (gpt *GPT) ParsePartitions(data []byte) error {
	if gpt.Header == nil {
		return errors.New("gpt header not parsed")
	}
	entrySize := int(gpt.Header.PartitionSize)
	if entrySize == 0 {
		return errors.New("gpt partition entry size is zero")
	}
	partitions := make([]Partition, 0, gpt.Header.NofPartitions)
	for pos := 0; pos+entrySize <= len(data) &&
		len(partitions) < int(gpt.Header.NofPartitions); pos += entrySize {
		var partition Partition
		if err := utils.Unmarshal(data[pos:pos+entrySize], &partition); err != nil {
			return err
		}
		partitions = append(partitions, partition)
	}
	gpt.Partitions = partitions
	return nil
}

// IsEmpty reports an unused partition array slot. Empty slots keep their
// position so that table indexes remain stable for volume identifiers.
func (partition Partition) IsEmpty() bool {
	for _, b := range partition.PartitionTypeGUID {
		if b != 0x00 {
			return false
		}
	}
	return true
}

func (partition Partition) GetOffset() uint64 {
	return partition.StartLBA
}

func (partition Partition) GetSectors() uint64 {
	if partition.EndLBA < partition.StartLBA {
		return 0
	}
	return partition.EndLBA - partition.StartLBA + 1
}

func (partition Partition) GetPartitionType() string {
	guid := strings.ToUpper(utils.StringifyGUID(partition.PartitionTypeGUID[:]))
	name, ok := PartitionTypeGuids[guid]
	if !ok {
		return guid
	}
	return name
}

func (partition Partition) GetName() string {
	return utils.DecodeUTF16(partition.Name[:])
}

func (partition Partition) GetInfo() string {
	return fmt.Sprintf(" %s %s at %d size %d sectors",
		partition.GetPartitionType(), partition.GetName(), partition.GetOffset(), partition.GetSectors())
}
