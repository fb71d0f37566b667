package GPT

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	efiSystemGUID = []byte{
		0x28, 0x73, 0x2a, 0xc1, 0x1f, 0xf8, 0xd2, 0x11,
		0xba, 0x4b, 0x00, 0xa0, 0xc9, 0x3e, 0xc9, 0x3b,
	}
	linuxFilesystemGUID = []byte{
		0xaf, 0x3d, 0xc6, 0x0f, 0x83, 0x84, 0x72, 0x47,
		0x8e, 0x79, 0x3d, 0x69, 0xd8, 0x47, 0x7d, 0xe4,
	}
)

func buildHeader(nofPartitions uint32, partitionSize uint32) []byte {
	header := make([]byte, 92)
	copy(header, "EFI PART")
	binary.LittleEndian.PutUint32(header[12:], 92)
	binary.LittleEndian.PutUint64(header[24:], 1)    // current lba
	binary.LittleEndian.PutUint64(header[40:], 34)   // first usable
	binary.LittleEndian.PutUint64(header[48:], 2047) // last usable
	binary.LittleEndian.PutUint64(header[72:], 2)    // partition array lba
	binary.LittleEndian.PutUint32(header[80:], nofPartitions)
	binary.LittleEndian.PutUint32(header[84:], partitionSize)
	return header
}

func buildPartitionEntry(typeGUID []byte, startLBA uint64, endLBA uint64, name string) []byte {
	entry := make([]byte, 128)
	copy(entry[0:16], typeGUID)
	binary.LittleEndian.PutUint64(entry[32:], startLBA)
	binary.LittleEndian.PutUint64(entry[40:], endLBA)
	for idx, unit := range utf16.Encode([]rune(name)) {
		binary.LittleEndian.PutUint16(entry[56+idx*2:], unit)
	}
	return entry
}

func TestParseHeader(t *testing.T) {
	var gpt GPT
	require.NoError(t, gpt.ParseHeader(buildHeader(128, 128)))

	assert.Equal(t, uint64(2), gpt.Header.PartitionsStartLBA)
	assert.Equal(t, uint32(128), gpt.Header.NofPartitions)
	assert.Equal(t, uint32(128), gpt.Header.PartitionSize)
	assert.Equal(t, uint32(128*128), gpt.GetPartitionArraySize())
}

func TestParseHeaderInvalidSignature(t *testing.T) {
	header := buildHeader(128, 128)
	copy(header, "BAD PART")

	var gpt GPT
	assert.EqualError(t, gpt.ParseHeader(header), "gpt header signature not valid")
}

func TestParseHeaderTruncated(t *testing.T) {
	var gpt GPT
	assert.Error(t, gpt.ParseHeader(make([]byte, 30)))
}

func TestParsePartitionsRequiresHeader(t *testing.T) {
	var gpt GPT
	assert.EqualError(t, gpt.ParsePartitions(make([]byte, 128)), "gpt header not parsed")
}

func TestParsePartitionsKeepsEmptySlots(t *testing.T) {
	var gpt GPT
	require.NoError(t, gpt.ParseHeader(buildHeader(3, 128)))

	data := make([]byte, 0, 3*128)
	data = append(data, buildPartitionEntry(efiSystemGUID, 2048, 4095, "EFI")...)
	data = append(data, make([]byte, 128)...)
	data = append(data, buildPartitionEntry(linuxFilesystemGUID, 8192, 16383, "rootfs")...)
	require.NoError(t, gpt.ParsePartitions(data))
	require.Len(t, gpt.Partitions, 3)

	assert.False(t, gpt.Partitions[0].IsEmpty())
	assert.True(t, gpt.Partitions[1].IsEmpty())
	assert.False(t, gpt.Partitions[2].IsEmpty())

	efi := gpt.Partitions[0]
	assert.Equal(t, "EFI System", efi.GetPartitionType())
	assert.Equal(t, uint64(2048), efi.GetOffset())
	assert.Equal(t, uint64(2048), efi.GetSectors())

	rootfs := gpt.Partitions[2]
	assert.Equal(t, "Linux Filesystem", rootfs.GetPartitionType())
	assert.Equal(t, "rootfs", rootfs.GetName())
	assert.Equal(t, uint64(8192), rootfs.GetSectors())
}

func TestParsePartitionsHonorsCount(t *testing.T) {
	var gpt GPT
	require.NoError(t, gpt.ParseHeader(buildHeader(1, 128)))

	data := append(buildPartitionEntry(efiSystemGUID, 2048, 4095, "EFI"),
		buildPartitionEntry(linuxFilesystemGUID, 8192, 16383, "rootfs")...)
	require.NoError(t, gpt.ParsePartitions(data))
	assert.Len(t, gpt.Partitions, 1)
}

func TestGetSectorsInvertedRange(t *testing.T) {
	partition := Partition{StartLBA: 100, EndLBA: 10}
	assert.Equal(t, uint64(0), partition.GetSectors())
}

func TestGetPartitionTypeUnknownGUID(t *testing.T) {
	var partition Partition
	partition.PartitionTypeGUID[0] = 0xFF
	assert.Equal(t, "000000FF-0000-0000-0000-000000000000", partition.GetPartitionType())
}
