// Package reporter prints human readable triage output to stdout. Reports on
// disk are the exporter's job, this package only serves the console.
package reporter

import (
	"fmt"

	"github.com/aarsakian/CryptoTriage/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Reporter struct {
	ShowOffsets bool
}

func (rp Reporter) ShowSources(sources []model.Source) {
	if len(sources) == 0 {
		fmt.Println("No sources detected")
		return
	}
	fmt.Printf("%-18s %-14s %s\n", "SOURCE", "TYPE", "DESCRIPTION")
	for _, source := range sources {
		fmt.Printf("%-18s %-14s %s\n", source.Identifier, source.Kind, source.DisplayName)
	}
}

func (rp Reporter) ShowVolumes(analyses []model.VolumeAnalysis) {
	if len(analyses) == 0 {
		fmt.Println("No volumes detected")
		return
	}
	if rp.ShowOffsets {
		fmt.Printf("%-14s %-14s %-10s %-10s %-20s %-12s %s\n",
			"VOLUME", "OFFSET", "SIZE", "FS", "ENCRYPTION", "ALGORITHM", "VERSION")
	} else {
		fmt.Printf("%-14s %-10s %-10s %-20s %-12s %s\n",
			"VOLUME", "SIZE", "FS", "ENCRYPTION", "ALGORITHM", "VERSION")
	}
	for _, analysis := range analyses {
		volume := analysis.Volume
		if rp.ShowOffsets {
			fmt.Printf("%-14s %-14d %-10s %-10s %-20s %-12s %s\n",
				volume.Identifier, volume.Offset, humanSize(volume.Size),
				analysis.Filesystem, analysis.Encryption.Status,
				analysis.Encryption.Algorithm, analysis.Encryption.Version)
		} else {
			fmt.Printf("%-14s %-10s %-10s %-20s %-12s %s\n",
				volume.Identifier, humanSize(volume.Size),
				analysis.Filesystem, analysis.Encryption.Status,
				analysis.Encryption.Algorithm, analysis.Encryption.Version)
		}
	}
}

func (rp Reporter) ShowSummary(result *model.AnalysisResult) {
	p := message.NewPrinter(language.English)

	encrypted := 0
	for _, analysis := range result.Volumes {
		if analysis.Encryption.Status == model.EncryptionEncrypted ||
			analysis.Encryption.Status == model.EncryptionPartiallyEncrypted {
			encrypted++
		}
	}
	fmt.Println()
	p.Printf("Volumes analyzed: %d (%d encrypted)\n", len(result.Volumes), encrypted)
	p.Printf("Files: %d  Directories: %d\n", result.TotalFiles(), result.TotalDirectories())
	rp.ShowVolumes(result.Volumes)
}

// ConsoleProgress renders manager progress on a single rewritten line.
type ConsoleProgress struct{}

func (progress ConsoleProgress) Update(message string, percentage int) {
	if percentage < 0 {
		fmt.Println(message)
		return
	}
	if len(message) > 68 {
		message = message[:65] + "..."
	}
	fmt.Printf("\r[%3d%%] %-68s", percentage, message)
	if percentage >= 100 {
		fmt.Println()
	}
}

func humanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
