// Package driver provides access to evidence sources. A driver opens a
// source, enumerates its volumes and serves raw reads at source-absolute
// offsets, so that detection code never deals with image formats or
// partition tables itself.
package driver

import (
	"errors"

	"github.com/aarsakian/CryptoTriage/model"
)

var (
	ErrNoSource          = errors.New("no source has been opened")
	ErrUnknownVolume     = errors.New("unknown volume")
	ErrUnknownFilesystem = errors.New("filesystem structure not available")
	ErrUnsupportedRead   = errors.New("raw reads not supported by this driver")
)

type Capabilities struct {
	SupportsPhysicalDisks bool
	SupportsDiskImages    bool
	SupportedFormats      []string
}

type DataSourceDriver interface {
	Name() string
	Capabilities() Capabilities
	// EnumerateSources lists sources the driver can discover on its own,
	// e.g. attached physical disks. Image and directory sources are named
	// explicitly and are never enumerated.
	EnumerateSources() ([]model.Source, error)
	OpenSource(source model.Source) error
	ListVolumes() ([]*model.Volume, error)
	// Read returns size bytes at a source-absolute offset. Volume-relative
	// reads are formed by the caller adding the volume offset.
	Read(offset int64, size int) ([]byte, error)
	OpenFilesystem(volume *model.Volume) (FilesystemHandle, error)
	Close() error
}

// FilesystemHandle walks a mounted or parsed filesystem. Handles are not
// safe for concurrent use, parallel scanners open one handle per worker.
type FilesystemHandle interface {
	Type() model.FileSystemType
	OpenDir(path string) ([]model.DirEntry, error)
	Close() error
}
