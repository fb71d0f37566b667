package model

type SourceKind string

const (
	SourceDiskImage    SourceKind = "disk_image"
	SourcePhysicalDisk SourceKind = "physical_disk"
	SourceDirectory    SourceKind = "directory"
)

type FileSystemType string

const (
	FSNtfs    FileSystemType = "ntfs"
	FSExt2    FileSystemType = "ext2"
	FSExt3    FileSystemType = "ext3"
	FSExt4    FileSystemType = "ext4"
	FSFat12   FileSystemType = "fat12"
	FSFat16   FileSystemType = "fat16"
	FSFat32   FileSystemType = "fat32"
	FSExfat   FileSystemType = "exfat"
	FSBtrfs   FileSystemType = "btrfs"
	FSApfs    FileSystemType = "apfs"
	FSHfsPlus FileSystemType = "hfs+"
	FSIso9660 FileSystemType = "iso9660"
	FSUfs     FileSystemType = "ufs"
	FSUnknown FileSystemType = "unknown"
)

type EncryptionStatus string

const (
	EncryptionNotDetected        EncryptionStatus = "not_detected"
	EncryptionEncrypted          EncryptionStatus = "encrypted"
	EncryptionPartiallyEncrypted EncryptionStatus = "partially_encrypted"
	EncryptionUnknown            EncryptionStatus = "unknown"
)

// EncryptionFinding is the outcome of a single detector pass over a volume.
// Version and Details are empty when the detector has nothing to add.
type EncryptionFinding struct {
	Status    EncryptionStatus
	Algorithm string
	Version   string
	Details   string
}

type Source struct {
	Identifier  string
	Kind        SourceKind
	DisplayName string
	Path        string
}

// Volume describes a partition or logical volume found on a source.
// Filesystem and Encryption are written once per analysis pass by the
// analysis manager.
type Volume struct {
	Identifier string
	Offset     int64
	Size       int64
	Filesystem FileSystemType
	Encryption EncryptionStatus
}

type VolumeAnalysis struct {
	Volume     *Volume
	Filesystem FileSystemType
	Encryption EncryptionFinding
	Metadata   *MetadataResult
}

type AnalysisResult struct {
	Source  Source
	Volumes []VolumeAnalysis
}

func (result AnalysisResult) TotalFiles() int {
	total := 0
	for _, analysis := range result.Volumes {
		if analysis.Metadata != nil {
			total += analysis.Metadata.TotalFiles
		}
	}
	return total
}

func (result AnalysisResult) TotalDirectories() int {
	total := 0
	for _, analysis := range result.Volumes {
		if analysis.Metadata != nil {
			total += analysis.Metadata.TotalDirectories
		}
	}
	return total
}
