// Package exporter writes analysis results to report files. JSON keeps the
// full volume tree, CSV flattens it to one row per entry.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aarsakian/CryptoTriage/model"
	"github.com/pkg/errors"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", errors.Errorf("unsupported export format %q", name)
}

type Exporter interface {
	Export(result *model.AnalysisResult, destination string, format Format) (string, error)
}

// FileExporter writes reports to the local filesystem. Destination is the
// exact file path, missing parent directories are created.
type FileExporter struct{}

func (exporter FileExporter) Export(result *model.AnalysisResult, destination string, format Format) (string, error) {
	if err := os.MkdirAll(filepath.Dir(destination), 0750); err != nil {
		return "", errors.Wrap(err, "failed to create report directory")
	}
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(buildReport(result), "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "failed to encode report")
		}
		if err := os.WriteFile(destination, payload, 0644); err != nil {
			return "", errors.Wrap(err, "failed to write report")
		}
	case FormatCSV:
		if err := writeCSV(result, destination); err != nil {
			return "", err
		}
	default:
		return "", errors.Errorf("unsupported export format %q", format)
	}
	return destination, nil
}

type reportPayload struct {
	Source  sourcePayload   `json:"source"`
	Totals  totalsPayload   `json:"totals"`
	Volumes []volumePayload `json:"volumes"`
}

type sourcePayload struct {
	Identifier  string  `json:"identifier"`
	Type        string  `json:"type"`
	DisplayName string  `json:"display_name"`
	Path        *string `json:"path"`
}

type totalsPayload struct {
	Volumes     int `json:"volumes"`
	Files       int `json:"files"`
	Directories int `json:"directories"`
}

type volumePayload struct {
	Identifier string            `json:"identifier"`
	Filesystem string            `json:"filesystem"`
	Offset     int64             `json:"offset"`
	Size       int64             `json:"size"`
	Encryption encryptionPayload `json:"encryption"`
	Metadata   *metadataPayload  `json:"metadata"`
}

type encryptionPayload struct {
	Status    string  `json:"status"`
	Algorithm string  `json:"algorithm"`
	Version   *string `json:"version"`
	Details   *string `json:"details"`
}

type metadataPayload struct {
	TotalFiles       int               `json:"total_files"`
	TotalDirectories int               `json:"total_directories"`
	Tree             *directoryPayload `json:"tree"`
}

type directoryPayload struct {
	Name           string              `json:"name"`
	Path           string              `json:"path"`
	Owner          string              `json:"owner"`
	CreatedAt      *string             `json:"created_at"`
	ModifiedAt     *string             `json:"modified_at"`
	AccessedAt     *string             `json:"accessed_at"`
	ChangedAt      *string             `json:"changed_at"`
	Attributes     []string            `json:"attributes"`
	Files          []filePayload       `json:"files"`
	Subdirectories []*directoryPayload `json:"subdirectories"`
}

type filePayload struct {
	Name       string  `json:"name"`
	Path       string  `json:"path"`
	Size       int64   `json:"size"`
	Owner      string  `json:"owner"`
	CreatedAt  *string `json:"created_at"`
	ModifiedAt *string `json:"modified_at"`
	AccessedAt *string `json:"accessed_at"`
	Encryption string  `json:"encryption"`
}

func buildReport(result *model.AnalysisResult) reportPayload {
	volumes := make([]volumePayload, 0, len(result.Volumes))
	for _, analysis := range result.Volumes {
		volumes = append(volumes, buildVolume(analysis))
	}
	return reportPayload{
		Source: sourcePayload{
			Identifier:  result.Source.Identifier,
			Type:        string(result.Source.Kind),
			DisplayName: result.Source.DisplayName,
			Path:        optional(result.Source.Path),
		},
		Totals: totalsPayload{
			Volumes:     len(result.Volumes),
			Files:       result.TotalFiles(),
			Directories: result.TotalDirectories(),
		},
		Volumes: volumes,
	}
}

func buildVolume(analysis model.VolumeAnalysis) volumePayload {
	payload := volumePayload{
		Identifier: analysis.Volume.Identifier,
		Filesystem: string(analysis.Filesystem),
		Offset:     analysis.Volume.Offset,
		Size:       analysis.Volume.Size,
		Encryption: encryptionPayload{
			Status:    string(analysis.Encryption.Status),
			Algorithm: analysis.Encryption.Algorithm,
			Version:   optional(analysis.Encryption.Version),
			Details:   optional(analysis.Encryption.Details),
		},
	}
	if analysis.Metadata != nil {
		payload.Metadata = &metadataPayload{
			TotalFiles:       analysis.Metadata.TotalFiles,
			TotalDirectories: analysis.Metadata.TotalDirectories,
			Tree:             buildDirectory(analysis.Metadata.Root),
		}
	}
	return payload
}

func buildDirectory(node *model.DirectoryNode) *directoryPayload {
	if node == nil {
		return nil
	}
	files := make([]filePayload, 0, len(node.Files))
	for _, file := range node.Files {
		files = append(files, filePayload{
			Name:       file.Name,
			Path:       file.Path,
			Size:       file.Size,
			Owner:      file.Owner,
			CreatedAt:  timestamp(file.CreatedAt),
			ModifiedAt: timestamp(file.ModifiedAt),
			AccessedAt: timestamp(file.AccessedAt),
			Encryption: string(file.Encryption),
		})
	}
	subdirectories := make([]*directoryPayload, 0, len(node.Subdirectories))
	for _, subdirectory := range node.Subdirectories {
		subdirectories = append(subdirectories, buildDirectory(subdirectory))
	}
	attributes := node.Attributes
	if attributes == nil {
		attributes = []string{}
	}
	return &directoryPayload{
		Name:           node.Name,
		Path:           node.Path,
		Owner:          node.Owner,
		CreatedAt:      timestamp(node.CreatedAt),
		ModifiedAt:     timestamp(node.ModifiedAt),
		AccessedAt:     timestamp(node.AccessedAt),
		ChangedAt:      timestamp(node.ChangedAt),
		Attributes:     attributes,
		Files:          files,
		Subdirectories: subdirectories,
	}
}

var csvHeader = []string{
	"volume_id", "entry_type", "path", "name", "size", "owner",
	"created_at", "modified_at", "accessed_at",
	"encryption_status", "encryption_algorithm", "encryption_version",
}

func writeCSV(result *model.AnalysisResult, destination string) error {
	handle, err := os.Create(destination)
	if err != nil {
		return errors.Wrap(err, "failed to create report")
	}
	defer handle.Close()

	writer := csv.NewWriter(handle)
	if err := writer.Write(csvHeader); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	for _, analysis := range result.Volumes {
		if err := writeVolumeRows(writer, analysis); err != nil {
			return errors.Wrap(err, "failed to write report")
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to write report")
}

// writeVolumeRows emits one row per entry, every row carrying the volume's
// encryption verdict. Volumes without metadata get a single summary row.
func writeVolumeRows(writer *csv.Writer, analysis model.VolumeAnalysis) error {
	volumeID := analysis.Volume.Identifier
	encryption := analysis.Encryption
	if analysis.Metadata == nil || analysis.Metadata.Root == nil {
		return writer.Write([]string{
			volumeID, "volume", "", "", strconv.FormatInt(analysis.Volume.Size, 10), "",
			"", "", "",
			string(encryption.Status), encryption.Algorithm, encryption.Version,
		})
	}
	return writeDirectoryRows(writer, analysis.Metadata.Root, volumeID, encryption)
}

func writeDirectoryRows(writer *csv.Writer, node *model.DirectoryNode, volumeID string, encryption model.EncryptionFinding) error {
	err := writer.Write([]string{
		volumeID, "directory", node.Path, node.Name, "", "",
		"", "", "",
		string(encryption.Status), encryption.Algorithm, encryption.Version,
	})
	if err != nil {
		return err
	}
	for _, file := range node.Files {
		err = writer.Write([]string{
			volumeID, "file", file.Path, file.Name, strconv.FormatInt(file.Size, 10), file.Owner,
			csvTimestamp(file.CreatedAt), csvTimestamp(file.ModifiedAt), csvTimestamp(file.AccessedAt),
			string(encryption.Status), encryption.Algorithm, encryption.Version,
		})
		if err != nil {
			return err
		}
	}
	for _, subdirectory := range node.Subdirectories {
		if err := writeDirectoryRows(writer, subdirectory, volumeID, encryption); err != nil {
			return err
		}
	}
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func timestamp(moment time.Time) *string {
	if moment.IsZero() {
		return nil
	}
	rendered := moment.UTC().Format(time.RFC3339)
	return &rendered
}

func csvTimestamp(moment time.Time) string {
	if moment.IsZero() {
		return ""
	}
	return moment.UTC().Format(time.RFC3339)
}
