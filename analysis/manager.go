// Package analysis orchestrates the full triage of a source, filesystem
// detection, the encryption detector chain and metadata collection per
// volume, with progress reporting and cooperative cancellation.
package analysis

import (
	"context"
	"fmt"

	"github.com/aarsakian/CryptoTriage/detect"
	"github.com/aarsakian/CryptoTriage/driver"
	"github.com/aarsakian/CryptoTriage/exporter"
	"github.com/aarsakian/CryptoTriage/model"
	"github.com/aarsakian/CryptoTriage/scan"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNoSession         = errors.New("analysis session has not been started")
	ErrManagerClosed     = errors.New("analysis manager is closed")
	ErrAnalysisCancelled = errors.New("analysis cancelled")
)

// ReportExporter persists an analysis result, returning the path written.
type ReportExporter interface {
	Export(result *model.AnalysisResult, destination string, format exporter.Format) (string, error)
}

type Config struct {
	Driver              driver.DataSourceDriver
	FilesystemDetector  detect.FilesystemDetector
	EncryptionDetectors []detect.Detector
	MetadataScanner     scan.MetadataScanner
	ReportExporter      ReportExporter
	ProgressReporter    ProgressReporter
}

// Manager drives analysis over one driver. It is not safe for concurrent
// calls, only the metadata scanner parallelizes internally.
type Manager struct {
	driver             driver.DataSourceDriver
	filesystemDetector detect.FilesystemDetector
	detectors          []detect.Detector
	scanner            scan.MetadataScanner
	exporter           ReportExporter
	reporter           ProgressReporter
	session            *Session
	closed             bool
}

func NewManager(config Config) *Manager {
	reporter := config.ProgressReporter
	if reporter == nil {
		reporter = NewLogProgressReporter()
	}
	return &Manager{
		driver:             config.Driver,
		filesystemDetector: config.FilesystemDetector,
		detectors:          config.EncryptionDetectors,
		scanner:            config.MetadataScanner,
		exporter:           config.ReportExporter,
		reporter:           reporter,
	}
}

// StartSession opens the source and enumerates its volumes. Driver failures
// surface to the caller, there is no session to fall back on yet. Starting a
// session on an active manager replaces the previous one.
func (manager *Manager) StartSession(source model.Source) (*Session, error) {
	if manager.closed {
		return nil, ErrManagerClosed
	}
	manager.progress("Initializing session", 5)
	if err := manager.driver.OpenSource(source); err != nil {
		return nil, err
	}
	volumes, err := manager.driver.ListVolumes()
	if err != nil {
		return nil, err
	}
	manager.session = NewSession(source, volumes)
	manager.progress(fmt.Sprintf("Detected %d volume(s)", len(volumes)), 15)
	return manager.session, nil
}

func (manager *Manager) Session() (*Session, error) {
	if manager.closed {
		return nil, ErrManagerClosed
	}
	if manager.session == nil {
		return nil, ErrNoSession
	}
	return manager.session, nil
}

// Analyze runs the per volume pipeline over the selected session volumes, an
// empty id list selects all of them in session order. On cancellation the
// partial result with every fully completed volume is returned together with
// ErrAnalysisCancelled.
func (manager *Manager) Analyze(ctx context.Context, volumeIDs []string, collectMetadata bool) (*model.AnalysisResult, error) {
	session, err := manager.Session()
	if err != nil {
		return nil, err
	}
	selected, err := selectVolumes(session.Volumes, volumeIDs)
	if err != nil {
		return nil, err
	}

	result := &model.AnalysisResult{Source: session.Source}
	total := len(selected)
	for index, volume := range selected {
		if ctx.Err() != nil {
			return result, ErrAnalysisCancelled
		}
		bandStart, bandEnd := progressBand(index+1, total)
		manager.progress(fmt.Sprintf("Analyzing volume %s", volume.Identifier), bandStart)

		filesystem := manager.detectFilesystem(volume)
		finding := manager.detectEncryption(volume)

		var metadata *model.MetadataResult
		if collectMetadata && manager.shouldScanMetadata(volume, filesystem, finding) {
			metadata, err = manager.scanMetadata(ctx, volume, bandStart, bandEnd)
			if err != nil {
				if errors.Is(err, scan.ErrScanCancelled) {
					return result, ErrAnalysisCancelled
				}
				log.Warningf("metadata scan of volume %s failed: %v", volume.Identifier, err)
				metadata = nil
			}
		}

		result.Volumes = append(result.Volumes, model.VolumeAnalysis{
			Volume:     volume,
			Filesystem: filesystem,
			Encryption: finding,
			Metadata:   metadata,
		})
	}

	manager.progress("Analysis complete", 95)
	return result, nil
}

// TriageVolumes classifies every session volume without collecting metadata,
// the quick look before a full analysis.
func (manager *Manager) TriageVolumes(ctx context.Context) ([]model.VolumeAnalysis, error) {
	session, err := manager.Session()
	if err != nil {
		return nil, err
	}
	var analyses []model.VolumeAnalysis
	for _, volume := range session.Volumes {
		if ctx.Err() != nil {
			return analyses, ErrAnalysisCancelled
		}
		analyses = append(analyses, model.VolumeAnalysis{
			Volume:     volume,
			Filesystem: manager.detectFilesystem(volume),
			Encryption: manager.detectEncryption(volume),
		})
	}
	return analyses, nil
}

// ExportReport writes the result through the exporter and reports completion.
func (manager *Manager) ExportReport(result *model.AnalysisResult, destination string, format exporter.Format) (string, error) {
	if manager.closed {
		return "", ErrManagerClosed
	}
	path, err := manager.exporter.Export(result, destination, format)
	if err != nil {
		return "", err
	}
	manager.progress("Report saved to "+path, 100)
	return path, nil
}

// Close releases the driver and ends the manager for good. State is cleared
// even when the driver close fails.
func (manager *Manager) Close() error {
	err := manager.driver.Close()
	manager.session = nil
	manager.closed = true
	return err
}

func (manager *Manager) detectFilesystem(volume *model.Volume) model.FileSystemType {
	filesystem, err := manager.filesystemDetector.DetectFilesystem(volume)
	if err != nil {
		log.Warningf("filesystem detection failed on volume %s: %v", volume.Identifier, err)
		filesystem = model.FSUnknown
	}
	volume.Filesystem = filesystem
	return filesystem
}

// detectEncryption runs the chain in configured order. The first detector
// reporting encrypted or partially encrypted decides, a failing detector is
// skipped, otherwise the first finding that any detector produced stands.
func (manager *Manager) detectEncryption(volume *model.Volume) model.EncryptionFinding {
	var fallback *model.EncryptionFinding
	for _, detector := range manager.detectors {
		finding, err := detector.AnalyzeVolume(volume)
		if err != nil {
			log.Warningf("encryption detection failed on volume %s (detector %s): %v",
				volume.Identifier, detector.Name(), err)
			continue
		}
		if finding.Status == model.EncryptionEncrypted || finding.Status == model.EncryptionPartiallyEncrypted {
			volume.Encryption = finding.Status
			return finding
		}
		if fallback == nil {
			kept := finding
			fallback = &kept
		}
	}
	result := model.EncryptionFinding{Status: model.EncryptionUnknown}
	if fallback != nil {
		result = *fallback
	}
	volume.Encryption = result.Status
	return result
}

func (manager *Manager) shouldScanMetadata(volume *model.Volume, filesystem model.FileSystemType, finding model.EncryptionFinding) bool {
	if filesystem == model.FSUnknown {
		log.Infof("skipping metadata scan of volume %s: filesystem unknown", volume.Identifier)
		return false
	}
	if finding.Status == model.EncryptionEncrypted || finding.Status == model.EncryptionPartiallyEncrypted {
		log.Infof("skipping metadata scan of volume %s: volume is %s", volume.Identifier, finding.Status)
		return false
	}
	return true
}

// scanMetadata maps the scanner's own 0-100 progress linearly into the
// volume's band of the overall run.
func (manager *Manager) scanMetadata(ctx context.Context, volume *model.Volume, bandStart, bandEnd int) (*model.MetadataResult, error) {
	bandMessage := fmt.Sprintf("Analyzing volume %s", volume.Identifier)
	progress := func(percent int, kind string, path string) {
		message := bandMessage
		if path != "" {
			switch kind {
			case "directory":
				message = "Directory: " + path
			case "file":
				message = "File: " + path
			default:
				message = path
			}
		}
		manager.reporter.Update(message, bandStart+(bandEnd-bandStart)*percent/100)
	}
	return manager.scanner.Scan(ctx, volume, progress)
}

func (manager *Manager) progress(message string, percentage int) {
	manager.reporter.Update(message, percentage)
}

func progressBand(current, total int) (int, int) {
	if total == 0 {
		return 50, 50
	}
	return 15 + 80*(current-1)/total, 15 + 80*current/total
}

// selectVolumes keeps session order, the ids only choose the subset.
func selectVolumes(volumes []*model.Volume, ids []string) ([]*model.Volume, error) {
	if len(ids) == 0 {
		if len(volumes) == 0 {
			return nil, errors.New("no volumes selected for analysis")
		}
		return volumes, nil
	}
	known := make(map[string]bool, len(volumes))
	for _, volume := range volumes {
		known[volume.Identifier] = true
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !known[id] {
			return nil, errors.Errorf("unknown volume %s", id)
		}
		wanted[id] = true
	}
	var selected []*model.Volume
	for _, volume := range volumes {
		if wanted[volume.Identifier] {
			selected = append(selected, volume)
		}
	}
	if len(selected) == 0 {
		return nil, errors.New("no volumes selected for analysis")
	}
	return selected, nil
}
