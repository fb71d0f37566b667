package model

import (
	"io/fs"
	"time"
)

type EntryKind uint8

const (
	EntryOther EntryKind = iota
	EntryDir
	EntryFile
)

// Metadata record flags as reported by drivers.
const (
	FlagAllocated   uint32 = 0x01
	FlagUnallocated uint32 = 0x02
	FlagCompressed  uint32 = 0x10
	FlagOrphan      uint32 = 0x20
	FlagApp         uint32 = 0x40
)

// DirEntry is the raw driver-side view of a directory entry. Timestamps are
// unix seconds, zero or negative when the filesystem does not record them.
// UID and GID are -1 when unknown.
type DirEntry struct {
	Name   string
	Kind   EntryKind
	Size   int64
	UID    int
	GID    int
	Mode   fs.FileMode
	Flags  uint32
	Crtime int64
	Ctime  int64
	Mtime  int64
	Atime  int64
}

type FileMetadata struct {
	Name       string
	Path       string
	Size       int64
	Owner      string
	CreatedAt  time.Time
	ChangedAt  time.Time
	ModifiedAt time.Time
	AccessedAt time.Time
	Attributes []string
	Encryption EncryptionStatus
}

type DirectoryNode struct {
	Name           string
	Path           string
	Owner          string
	CreatedAt      time.Time
	ChangedAt      time.Time
	ModifiedAt     time.Time
	AccessedAt     time.Time
	Attributes     []string
	Files          []FileMetadata
	Subdirectories []*DirectoryNode
}

// WalkFiles visits every file beneath the node, depth first.
func (node *DirectoryNode) WalkFiles(visit func(FileMetadata)) {
	for _, file := range node.Files {
		visit(file)
	}
	for _, subdirectory := range node.Subdirectories {
		subdirectory.WalkFiles(visit)
	}
}

type MetadataResult struct {
	Root             *DirectoryNode
	TotalFiles       int
	TotalDirectories int
}
