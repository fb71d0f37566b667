package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aarsakian/CryptoTriage/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSignatures(t *testing.T) {
	signatures, err := DefaultSignatures()
	require.NoError(t, err)
	require.Len(t, signatures, 4)

	ids := make([]string, 0, len(signatures))
	for _, signature := range signatures {
		ids = append(ids, signature.ID)
		assert.Equal(t, model.EncryptionEncrypted, signature.Status)
		assert.Equal(t, 4096, signature.MaxRead)
		assert.NotEmpty(t, signature.Details)
	}
	assert.Equal(t, []string{"bitlocker", "veracrypt", "luks", "filevault2"}, ids)
}

func TestAnalyzeVolumeBitLocker(t *testing.T) {
	data := make([]byte, 4096)
	copy(data[3:], "-FVE-FS-")
	fake := &fakeDriver{data: data}

	detector, err := NewSignatureDetector(fake, nil)
	require.NoError(t, err)

	finding, err := detector.AnalyzeVolume(&model.Volume{Offset: 0, Size: 4096})
	require.NoError(t, err)
	assert.Equal(t, model.EncryptionEncrypted, finding.Status)
	assert.Equal(t, "BitLocker", finding.Algorithm)
	assert.Equal(t, "", finding.Version)
	assert.Equal(t, "BitLocker volume header marker", finding.Details)

	// all embedded signatures share one header window, a single read serves them
	require.Len(t, fake.reads, 1)
	assert.Equal(t, readCall{offset: 0, size: 4096}, fake.reads[0])
}

func TestAnalyzeVolumeHonorsVolumeOffset(t *testing.T) {
	data := make([]byte, 8192)
	copy(data[2048+3:], "-FVE-FS-")
	fake := &fakeDriver{data: data}

	detector, err := NewSignatureDetector(fake, nil)
	require.NoError(t, err)

	finding, err := detector.AnalyzeVolume(&model.Volume{Offset: 2048, Size: 4096})
	require.NoError(t, err)
	assert.Equal(t, "BitLocker", finding.Algorithm)
	require.Len(t, fake.reads, 1)
	assert.Equal(t, int64(2048), fake.reads[0].offset)
}

func TestAnalyzeVolumeFirstMatchWins(t *testing.T) {
	// both the veracrypt and the bitlocker rule hold, catalog order decides
	data := make([]byte, 4096)
	copy(data, "TRUE")
	copy(data[32:], "-FVE-FS-")
	fake := &fakeDriver{data: data}

	detector, err := NewSignatureDetector(fake, nil)
	require.NoError(t, err)

	finding, err := detector.AnalyzeVolume(&model.Volume{Size: 4096})
	require.NoError(t, err)
	assert.Equal(t, "BitLocker", finding.Algorithm)
}

func TestAnalyzeVolumeVeraCrypt(t *testing.T) {
	data := make([]byte, 4096)
	copy(data, "TRUE")
	fake := &fakeDriver{data: data}

	detector, err := NewSignatureDetector(fake, nil)
	require.NoError(t, err)

	finding, err := detector.AnalyzeVolume(&model.Volume{Size: 4096})
	require.NoError(t, err)
	assert.Equal(t, model.EncryptionEncrypted, finding.Status)
	assert.Equal(t, "VeraCrypt", finding.Algorithm)
}

func TestAnalyzeVolumeLuksVersion(t *testing.T) {
	data := make([]byte, 4096)
	copy(data, []byte{0x4c, 0x55, 0x4b, 0x53, 0xba, 0xbe, 0x02, 0x00})
	fake := &fakeDriver{data: data}

	detector, err := NewSignatureDetector(fake, nil)
	require.NoError(t, err)

	finding, err := detector.AnalyzeVolume(&model.Volume{Size: 4096})
	require.NoError(t, err)
	assert.Equal(t, "LUKS", finding.Algorithm)
	assert.Equal(t, "2", finding.Version)
}

func TestAnalyzeVolumeLuksZeroVersion(t *testing.T) {
	data := make([]byte, 4096)
	copy(data, []byte{0x4c, 0x55, 0x4b, 0x53, 0xba, 0xbe, 0x00, 0x00})
	fake := &fakeDriver{data: data}

	detector, err := NewSignatureDetector(fake, nil)
	require.NoError(t, err)

	finding, err := detector.AnalyzeVolume(&model.Volume{Size: 4096})
	require.NoError(t, err)
	assert.Equal(t, "LUKS", finding.Algorithm)
	assert.Equal(t, "", finding.Version)
}

func TestAnalyzeVolumeFileVault(t *testing.T) {
	data := make([]byte, 4096)
	copy(data[256:], "corestrag")
	fake := &fakeDriver{data: data}

	detector, err := NewSignatureDetector(fake, nil)
	require.NoError(t, err)

	finding, err := detector.AnalyzeVolume(&model.Volume{Size: 4096})
	require.NoError(t, err)
	assert.Equal(t, model.EncryptionEncrypted, finding.Status)
	assert.Equal(t, "FileVault2", finding.Algorithm)
}

func TestAnalyzeVolumeNoMatch(t *testing.T) {
	fake := &fakeDriver{data: make([]byte, 4096)}

	detector, err := NewSignatureDetector(fake, nil)
	require.NoError(t, err)

	finding, err := detector.AnalyzeVolume(&model.Volume{Size: 4096})
	require.NoError(t, err)
	assert.Equal(t, model.EncryptionFinding{Status: model.EncryptionNotDetected}, finding)
}

func TestAnalyzeVolumeReadFailure(t *testing.T) {
	fake := &fakeDriver{readErr: errors.New("device gone")}

	detector, err := NewSignatureDetector(fake, nil)
	require.NoError(t, err)

	finding, err := detector.AnalyzeVolume(&model.Volume{Size: 4096})
	require.NoError(t, err)
	assert.Equal(t, model.EncryptionFinding{Status: model.EncryptionUnknown}, finding)
}

func TestNewSignatureDetectorSubset(t *testing.T) {
	fake := &fakeDriver{}

	detector, err := NewSignatureDetector(fake, nil, "luks")
	require.NoError(t, err)
	require.Len(t, detector.Signatures(), 1)
	assert.Equal(t, "luks", detector.Signatures()[0].ID)
}

func TestNewSignatureDetectorUnknownID(t *testing.T) {
	_, err := NewSignatureDetector(&fakeDriver{}, nil, "nothere")
	assert.EqualError(t, err, "signature detector requires at least one signature")
}

func TestDedicatedDetectorConstructors(t *testing.T) {
	fake := &fakeDriver{}
	tests := []struct {
		id        string
		construct func() (*SignatureDetector, error)
	}{
		{"bitlocker", func() (*SignatureDetector, error) { return NewBitLockerDetector(fake) }},
		{"veracrypt", func() (*SignatureDetector, error) { return NewVeraCryptDetector(fake) }},
		{"luks", func() (*SignatureDetector, error) { return NewLuksDetector(fake) }},
		{"filevault2", func() (*SignatureDetector, error) { return NewFileVault2Detector(fake) }},
	}
	for _, test := range tests {
		t.Run(test.id, func(t *testing.T) {
			detector, err := test.construct()
			require.NoError(t, err)
			require.Len(t, detector.Signatures(), 1)
			assert.Equal(t, test.id, detector.Signatures()[0].ID)
		})
	}
}

func TestLoadSignatures(t *testing.T) {
	catalog := `[{"id": "test", "name": "Test", "status": "encrypted",
		"matchers": [{"type": "equals", "pattern": "AA", "encoding": "hex"}]}]`
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0644))

	signatures, err := LoadSignatures(path)
	require.NoError(t, err)
	require.Len(t, signatures, 1)
	assert.Equal(t, "test", signatures[0].ID)
	assert.Equal(t, 4096, signatures[0].MaxRead, "default applies when max_read is absent")
}

func TestLoadSignaturesMissingFile(t *testing.T) {
	_, err := LoadSignatures(filepath.Join(t.TempDir(), "nothere.json"))
	assert.Error(t, err)
}

func TestParseSignaturesRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		catalog string
		message string
	}{
		{
			"malformed json",
			`{"not": "a list"}`,
			"failed to parse signature catalog",
		},
		{
			"missing id",
			`[{"name": "X", "status": "encrypted", "matchers": [{"type": "equals", "pattern": "A"}]}]`,
			"missing id",
		},
		{
			"missing name",
			`[{"id": "x", "status": "encrypted", "matchers": [{"type": "equals", "pattern": "A"}]}]`,
			"missing name",
		},
		{
			"bad status",
			`[{"id": "x", "name": "X", "status": "maybe", "matchers": [{"type": "equals", "pattern": "A"}]}]`,
			`unknown encryption status "maybe"`,
		},
		{
			"no matchers",
			`[{"id": "x", "name": "X", "status": "encrypted", "matchers": []}]`,
			"no matchers defined",
		},
		{
			"negative read offset",
			`[{"id": "x", "name": "X", "status": "encrypted", "read_offset": -1,
				"matchers": [{"type": "equals", "pattern": "A"}]}]`,
			"negative read offset",
		},
		{
			"bad matcher type",
			`[{"id": "x", "name": "X", "status": "encrypted", "matchers": [{"type": "regex", "pattern": "A"}]}]`,
			`unsupported matcher type "regex"`,
		},
		{
			"negative matcher offset",
			`[{"id": "x", "name": "X", "status": "encrypted",
				"matchers": [{"type": "equals", "pattern": "A", "offset": -4}]}]`,
			"negative matcher offset",
		},
		{
			"empty pattern",
			`[{"id": "x", "name": "X", "status": "encrypted", "matchers": [{"type": "equals", "pattern": ""}]}]`,
			"empty matcher pattern",
		},
		{
			"non ascii pattern",
			`[{"id": "x", "name": "X", "status": "encrypted", "matchers": [{"type": "equals", "pattern": "é"}]}]`,
			"is not ascii",
		},
		{
			"bad hex pattern",
			`[{"id": "x", "name": "X", "status": "encrypted",
				"matchers": [{"type": "equals", "pattern": "zz", "encoding": "hex"}]}]`,
			"is not hex",
		},
		{
			"bad encoding",
			`[{"id": "x", "name": "X", "status": "encrypted",
				"matchers": [{"type": "equals", "pattern": "A", "encoding": "utf-16"}]}]`,
			`unsupported pattern encoding "utf-16"`,
		},
		{
			"ascii version without length",
			`[{"id": "x", "name": "X", "status": "encrypted",
				"matchers": [{"type": "equals", "pattern": "A"}],
				"version": {"type": "ascii", "offset": 0}}]`,
			"ascii version extractor requires a length",
		},
		{
			"version length too large",
			`[{"id": "x", "name": "X", "status": "encrypted",
				"matchers": [{"type": "equals", "pattern": "A"}],
				"version": {"type": "uint16-le", "offset": 0, "length": 9}}]`,
			"version extractor bounds not valid",
		},
		{
			"bad version type",
			`[{"id": "x", "name": "X", "status": "encrypted",
				"matchers": [{"type": "equals", "pattern": "A"}],
				"version": {"type": "float", "offset": 0, "length": 2}}]`,
			`unsupported version extractor type "float"`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseSignatures([]byte(test.catalog))
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.message)
		})
	}
}

func TestMatcher(t *testing.T) {
	window := []byte("headercorestragtrailer")
	anchored := 6

	assert.True(t, Matcher{Type: "contains", Pattern: []byte("corestrag")}.Matches(window))
	assert.True(t, Matcher{Type: "contains", Pattern: []byte("corestrag"), Offset: &anchored}.Matches(window))
	assert.False(t, Matcher{Type: "contains", Pattern: []byte("header"), Offset: &anchored}.Matches(window))
	assert.True(t, Matcher{Type: "equals", Pattern: []byte("header")}.Matches(window))
	assert.False(t, Matcher{Type: "equals", Pattern: []byte("core")}.Matches(window))

	outOfBounds := 20
	assert.False(t, Matcher{Type: "equals", Pattern: []byte("trailer"), Offset: &outOfBounds}.Matches(window))
	assert.False(t, Matcher{Type: "glob", Pattern: []byte("header")}.Matches(window))
}

func TestVersionExtractor(t *testing.T) {
	data := []byte{0x00, 0x00, 0x01, 0x02, 'v', '1', '.', '2', 0x00, 0xC3}

	assert.Equal(t, "513", VersionExtractor{Type: "uint16-le", Offset: 2}.Extract(data))
	assert.Equal(t, "1", VersionExtractor{Type: "uint16-le", Offset: 2, Length: 1}.Extract(data))
	assert.Equal(t, "", VersionExtractor{Type: "uint16-le", Offset: 0}.Extract(data), "zero reads as missing")
	assert.Equal(t, "", VersionExtractor{Type: "uint16-le", Offset: 9}.Extract(data), "window too short")

	assert.Equal(t, "v1.2", VersionExtractor{Type: "ascii", Offset: 4, Length: 6}.Extract(data))
	assert.Equal(t, "", VersionExtractor{Type: "ascii", Offset: 8, Length: 4}.Extract(data))
}

func BenchmarkAnalyzeVolume(b *testing.B) {
	data := make([]byte, 4096)
	copy(data[256:], "corestrag")
	fake := &fakeDriver{data: data}

	detector, err := NewSignatureDetector(fake, nil)
	if err != nil {
		b.Fatal(err)
	}
	volume := &model.Volume{Size: 4096}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := detector.AnalyzeVolume(volume); err != nil {
			b.Fatal(err)
		}
	}
}
