package driver

import (
	"testing"

	"github.com/aarsakian/CryptoTriage/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memorySource(t *testing.T) (*DirectoryDriver, model.Source) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/evidence/docs", 0755))
	require.NoError(t, afero.WriteFile(fsys, "/evidence/secret.txt", []byte("text"), 0644))
	require.NoError(t, afero.WriteFile(fsys, "/evidence/docs/wallet.dat", []byte("wallet"), 0644))

	source := model.Source{
		Identifier:  "evidence",
		Kind:        model.SourceDirectory,
		DisplayName: "evidence",
		Path:        "/evidence",
	}
	return NewDirectoryDriverWithFs(fsys), source
}

func TestDirectoryOpenSource(t *testing.T) {
	dir, source := memorySource(t)
	require.NoError(t, dir.OpenSource(source))
	defer dir.Close()

	volumes, err := dir.ListVolumes()
	require.NoError(t, err)
	require.Len(t, volumes, 1)
	assert.Equal(t, "evidence:1", volumes[0].Identifier)
	assert.Equal(t, model.FSUnknown, volumes[0].Filesystem)
}

func TestDirectoryOpenSourceRejectsOtherKinds(t *testing.T) {
	dir, source := memorySource(t)
	source.Kind = model.SourceDiskImage
	assert.Error(t, dir.OpenSource(source))
}

func TestDirectoryOpenSourceRejectsFiles(t *testing.T) {
	dir, source := memorySource(t)
	source.Path = "/evidence/secret.txt"
	err := dir.OpenSource(source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestDirectoryOpenDir(t *testing.T) {
	dir, source := memorySource(t)
	require.NoError(t, dir.OpenSource(source))
	defer dir.Close()

	volumes, err := dir.ListVolumes()
	require.NoError(t, err)

	handle, err := dir.OpenFilesystem(volumes[0])
	require.NoError(t, err)
	defer handle.Close()
	assert.NotEmpty(t, handle.Type())

	entries, err := handle.OpenDir("/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "docs", entries[0].Name)
	assert.Equal(t, model.EntryDir, entries[0].Kind)
	assert.Equal(t, "secret.txt", entries[1].Name)
	assert.Equal(t, model.EntryFile, entries[1].Kind)
	assert.Equal(t, int64(4), entries[1].Size)

	entries, err = handle.OpenDir("/docs")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "wallet.dat", entries[0].Name)
}

func TestDirectoryOpenDirMissing(t *testing.T) {
	dir, source := memorySource(t)
	require.NoError(t, dir.OpenSource(source))
	defer dir.Close()

	volumes, err := dir.ListVolumes()
	require.NoError(t, err)

	handle, err := dir.OpenFilesystem(volumes[0])
	require.NoError(t, err)
	defer handle.Close()

	_, err = handle.OpenDir("/nowhere")
	assert.Error(t, err)
}

func TestDirectoryReadUnsupported(t *testing.T) {
	dir, source := memorySource(t)
	require.NoError(t, dir.OpenSource(source))
	defer dir.Close()

	_, err := dir.Read(0, 512)
	assert.ErrorIs(t, err, ErrUnsupportedRead)
}

func TestDirectoryOpenFilesystemUnknownVolume(t *testing.T) {
	dir, source := memorySource(t)
	require.NoError(t, dir.OpenSource(source))
	defer dir.Close()

	_, err := dir.OpenFilesystem(&model.Volume{Identifier: "other:1"})
	assert.ErrorIs(t, err, ErrUnknownVolume)
}

func TestDirectoryDriverWithoutSource(t *testing.T) {
	dir := NewDirectoryDriverWithFs(afero.NewMemMapFs())

	_, err := dir.ListVolumes()
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = dir.Read(0, 1)
	assert.ErrorIs(t, err, ErrNoSource)
}
