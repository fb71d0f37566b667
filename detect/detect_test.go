package detect

import (
	"github.com/aarsakian/CryptoTriage/driver"
	"github.com/aarsakian/CryptoTriage/model"
)

type readCall struct {
	offset int64
	size   int
}

// fakeDriver serves reads from an in-memory byte slice, short regions come
// back zero padded the way a sparse image would.
type fakeDriver struct {
	data    []byte
	readErr error
	reads   []readCall
	handle  driver.FilesystemHandle
	openErr error
}

func (fake *fakeDriver) Name() string { return "fake" }

func (fake *fakeDriver) Capabilities() driver.Capabilities { return driver.Capabilities{} }

func (fake *fakeDriver) EnumerateSources() ([]model.Source, error) { return nil, nil }

func (fake *fakeDriver) OpenSource(source model.Source) error { return nil }

func (fake *fakeDriver) ListVolumes() ([]*model.Volume, error) { return nil, nil }

func (fake *fakeDriver) Read(offset int64, size int) ([]byte, error) {
	fake.reads = append(fake.reads, readCall{offset: offset, size: size})
	if fake.readErr != nil {
		return nil, fake.readErr
	}
	chunk := make([]byte, size)
	if offset < int64(len(fake.data)) {
		copy(chunk, fake.data[offset:])
	}
	return chunk, nil
}

func (fake *fakeDriver) OpenFilesystem(volume *model.Volume) (driver.FilesystemHandle, error) {
	if fake.openErr != nil {
		return nil, fake.openErr
	}
	if fake.handle == nil {
		return nil, driver.ErrUnknownFilesystem
	}
	return fake.handle, nil
}

func (fake *fakeDriver) Close() error { return nil }

type fakeHandle struct {
	fstype model.FileSystemType
	closed bool
}

func (handle *fakeHandle) Type() model.FileSystemType { return handle.fstype }

func (handle *fakeHandle) OpenDir(path string) ([]model.DirEntry, error) { return nil, nil }

func (handle *fakeHandle) Close() error {
	handle.closed = true
	return nil
}
