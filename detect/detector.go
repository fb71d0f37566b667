// Package detect identifies filesystems and encryption on volumes. Detection
// never mutates the volume, callers decide what to do with a finding.
package detect

import (
	"github.com/aarsakian/CryptoTriage/model"
)

// Detector examines a volume and reports an encryption finding. A detector
// that cannot tell reports EncryptionUnknown instead of failing, errors are
// reserved for detectors that cannot run at all.
type Detector interface {
	Name() string
	AnalyzeVolume(volume *model.Volume) (model.EncryptionFinding, error)
}

// FilesystemDetector determines the filesystem type of a volume.
type FilesystemDetector interface {
	SupportedFilesystems() []model.FileSystemType
	DetectFilesystem(volume *model.Volume) (model.FileSystemType, error)
}
