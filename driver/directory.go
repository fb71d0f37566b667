package driver

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aarsakian/CryptoTriage/model"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DirectoryDriver exposes a mounted directory tree as a single volume. It
// serves metadata scanning only, raw reads have no meaning for a live mount
// and return ErrUnsupportedRead.
type DirectoryDriver struct {
	fs     afero.Fs
	source *model.Source
	root   string
	volume *model.Volume
}

func NewDirectoryDriver() *DirectoryDriver {
	return &DirectoryDriver{fs: afero.NewOsFs()}
}

// NewDirectoryDriverWithFs runs the driver against any afero filesystem,
// tests use it with an in-memory tree.
func NewDirectoryDriverWithFs(fsys afero.Fs) *DirectoryDriver {
	return &DirectoryDriver{fs: fsys}
}

func (driver *DirectoryDriver) Name() string {
	return "directory"
}

func (driver *DirectoryDriver) Capabilities() Capabilities {
	return Capabilities{
		SupportsPhysicalDisks: false,
		SupportsDiskImages:    false,
		SupportedFormats:      []string{"directory"},
	}
}

func (driver *DirectoryDriver) EnumerateSources() ([]model.Source, error) {
	return nil, nil
}

func (driver *DirectoryDriver) OpenSource(source model.Source) error {
	if source.Kind != model.SourceDirectory {
		return errors.Errorf("directory driver cannot open %s sources", source.Kind)
	}
	info, err := driver.fs.Stat(source.Path)
	if err != nil {
		return errors.Wrapf(err, "failed to open source %s", source.Identifier)
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", source.Path)
	}
	driver.source = &source
	driver.root = source.Path
	driver.volume = &model.Volume{
		Identifier: fmt.Sprintf("%s:1", source.Identifier),
		Offset:     0,
		Size:       0,
		Filesystem: model.FSUnknown,
		Encryption: model.EncryptionUnknown,
	}
	return nil
}

func (driver *DirectoryDriver) ListVolumes() ([]*model.Volume, error) {
	if driver.source == nil {
		return nil, ErrNoSource
	}
	return []*model.Volume{driver.volume}, nil
}

func (driver *DirectoryDriver) Read(offset int64, size int) ([]byte, error) {
	if driver.source == nil {
		return nil, ErrNoSource
	}
	return nil, ErrUnsupportedRead
}

func (driver *DirectoryDriver) OpenFilesystem(volume *model.Volume) (FilesystemHandle, error) {
	if driver.source == nil {
		return nil, ErrNoSource
	}
	if volume == nil || volume.Identifier != driver.volume.Identifier {
		return nil, ErrUnknownVolume
	}
	return &DirectoryHandle{
		fs:     driver.fs,
		root:   driver.root,
		fstype: hostFilesystemType(driver.root),
	}, nil
}

func (driver *DirectoryDriver) Close() error {
	driver.source = nil
	driver.root = ""
	driver.volume = nil
	return nil
}

type DirectoryHandle struct {
	fs     afero.Fs
	root   string
	fstype model.FileSystemType
}

func (handle *DirectoryHandle) Type() model.FileSystemType {
	return handle.fstype
}

func (handle *DirectoryHandle) OpenDir(dirpath string) ([]model.DirEntry, error) {
	infos, err := afero.ReadDir(handle.fs, handle.resolve(dirpath))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dirpath)
	}
	entries := make([]model.DirEntry, 0, len(infos))
	for _, info := range infos {
		entry := model.DirEntry{
			Name:  info.Name(),
			Size:  info.Size(),
			Mode:  info.Mode(),
			Flags: model.FlagAllocated,
			Mtime: info.ModTime().Unix(),
		}
		switch {
		case info.IsDir():
			entry.Kind = model.EntryDir
		case info.Mode().IsRegular():
			entry.Kind = model.EntryFile
		default:
			entry.Kind = model.EntryOther
		}
		entry.UID, entry.GID = ownerOf(info)
		entry.Crtime, entry.Ctime, entry.Atime = extraTimesOf(info)
		entries = append(entries, entry)
	}
	return entries, nil
}

func (handle *DirectoryHandle) resolve(dirpath string) string {
	trimmed := strings.TrimPrefix(path.Clean(dirpath), "/")
	if trimmed == "" || trimmed == "." {
		return handle.root
	}
	return filepath.Join(handle.root, filepath.FromSlash(trimmed))
}

func (handle *DirectoryHandle) Close() error {
	return nil
}
