package insights

import (
	"encoding/json"
	"time"

	"github.com/aarsakian/CryptoTriage/filters"
	"github.com/aarsakian/CryptoTriage/model"
)

const (
	maxFilesPerVolume = 200
	maxSuspiciousHits = 50
)

type contextDocument struct {
	Source  contextSource   `json:"source"`
	Totals  contextTotals   `json:"totals"`
	Volumes []contextVolume `json:"volumes"`
}

type contextSource struct {
	Identifier  string  `json:"identifier"`
	Type        string  `json:"type"`
	DisplayName string  `json:"display_name"`
	Path        *string `json:"path"`
}

type contextTotals struct {
	Volumes     int `json:"volumes"`
	Files       int `json:"files"`
	Directories int `json:"directories"`
}

type contextVolume struct {
	ID             string            `json:"id"`
	Filesystem     string            `json:"filesystem"`
	Offset         int64             `json:"offset"`
	Size           int64             `json:"size"`
	Encryption     contextEncryption `json:"encryption"`
	Totals         contextFileTotals `json:"totals"`
	FilesSample    []contextFile     `json:"files_sample"`
	SuspiciousHits []contextHit      `json:"suspicious_hits"`
}

type contextEncryption struct {
	Status    string `json:"status"`
	Algorithm string `json:"algorithm"`
	Version   string `json:"version"`
}

type contextFileTotals struct {
	Files       int `json:"files"`
	Directories int `json:"directories"`
}

type contextFile struct {
	Path       string   `json:"path"`
	Name       string   `json:"name"`
	Size       int64    `json:"size"`
	Owner      string   `json:"owner,omitempty"`
	CreatedAt  string   `json:"created_at,omitempty"`
	ChangedAt  string   `json:"changed_at,omitempty"`
	ModifiedAt string   `json:"modified_at,omitempty"`
	AccessedAt string   `json:"accessed_at,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
	Encryption string   `json:"encryption"`
}

type contextHit struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// BuildContext flattens an analysis result into the compact JSON document the
// prompts embed. Per volume file lists are sampled, half largest and half
// most recently modified.
func BuildContext(result *model.AnalysisResult, extraKeywords ...string) ([]byte, error) {
	suspiciousFilter := filters.NewSuspiciousFilter(extraKeywords...)
	suspiciousFilter.MaxResults = maxSuspiciousHits

	volumes := make([]contextVolume, 0, len(result.Volumes))
	for _, analysis := range result.Volumes {
		volumes = append(volumes, buildContextVolume(analysis, suspiciousFilter))
	}
	return json.Marshal(contextDocument{
		Source: contextSource{
			Identifier:  result.Source.Identifier,
			Type:        string(result.Source.Kind),
			DisplayName: result.Source.DisplayName,
			Path:        optionalPath(result.Source.Path),
		},
		Totals: contextTotals{
			Volumes:     len(result.Volumes),
			Files:       result.TotalFiles(),
			Directories: result.TotalDirectories(),
		},
		Volumes: volumes,
	})
}

func buildContextVolume(analysis model.VolumeAnalysis, suspiciousFilter filters.SuspiciousFilter) contextVolume {
	volume := contextVolume{
		ID:         analysis.Volume.Identifier,
		Filesystem: string(analysis.Filesystem),
		Offset:     analysis.Volume.Offset,
		Size:       analysis.Volume.Size,
		Encryption: contextEncryption{
			Status:    string(analysis.Encryption.Status),
			Algorithm: analysis.Encryption.Algorithm,
			Version:   analysis.Encryption.Version,
		},
		FilesSample:    []contextFile{},
		SuspiciousHits: []contextHit{},
	}
	if analysis.Metadata == nil || analysis.Metadata.Root == nil {
		return volume
	}
	volume.Totals.Files = analysis.Metadata.TotalFiles
	volume.Totals.Directories = analysis.Metadata.TotalDirectories

	var all []model.FileMetadata
	analysis.Metadata.Root.WalkFiles(func(file model.FileMetadata) {
		all = append(all, file)
	})

	for _, hit := range suspiciousFilter.Execute(all) {
		volume.SuspiciousHits = append(volume.SuspiciousHits, contextHit(hit))
	}

	sample := make([]model.FileMetadata, 0, maxFilesPerVolume)
	sample = append(sample, filters.TopBySize(all, maxFilesPerVolume/2)...)
	sample = append(sample, filters.TopByModified(all, maxFilesPerVolume/2)...)
	seen := make(map[string]bool, len(sample))
	for _, file := range sample {
		if seen[file.Path] {
			continue
		}
		seen[file.Path] = true
		volume.FilesSample = append(volume.FilesSample, contextFile{
			Path:       file.Path,
			Name:       file.Name,
			Size:       file.Size,
			Owner:      file.Owner,
			CreatedAt:  contextTime(file.CreatedAt),
			ChangedAt:  contextTime(file.ChangedAt),
			ModifiedAt: contextTime(file.ModifiedAt),
			AccessedAt: contextTime(file.AccessedAt),
			Attributes: file.Attributes,
			Encryption: string(file.Encryption),
		})
		if len(volume.FilesSample) >= maxFilesPerVolume {
			break
		}
	}
	return volume
}

func contextTime(moment time.Time) string {
	if moment.IsZero() {
		return ""
	}
	return moment.UTC().Format(time.RFC3339)
}

func optionalPath(path string) *string {
	if path == "" {
		return nil
	}
	return &path
}
