package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aarsakian/CryptoTriage/analysis"
	"github.com/aarsakian/CryptoTriage/detect"
	"github.com/aarsakian/CryptoTriage/driver"
	"github.com/aarsakian/CryptoTriage/exporter"
	"github.com/aarsakian/CryptoTriage/insights"
	"github.com/aarsakian/CryptoTriage/model"
	"github.com/aarsakian/CryptoTriage/reporter"
	"github.com/aarsakian/CryptoTriage/scan"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	volumes      string
	skipMetadata bool
	depth        int
	workers      int
	output       string
	format       string
	signatures   string
	directory    bool
	physical     int
	withInsights bool
	keywords     string
}

func AnalyzeCommand() *cobra.Command {
	options := analyzeOptions{}
	analyzeCommand := &cobra.Command{
		Use:   "analyze <image|device|directory>",
		Short: "Detect encrypted volumes and collect file metadata",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) > 0 {
				target = args[0]
			}
			return runAnalyze(cmd.Context(), target, options)
		},
	}
	flags := analyzeCommand.Flags()
	flags.StringVar(&options.volumes, "volumes", "", "volume ids to analyze, comma separated (default all)")
	flags.BoolVar(&options.skipMetadata, "skip-metadata", false, "skip file and directory metadata collection")
	flags.IntVar(&options.depth, "depth", -1, "maximum directory depth, -1 scans everything")
	flags.IntVar(&options.workers, "workers", 4, "parallel scan workers")
	flags.StringVar(&options.output, "output", ".", "report file or directory")
	flags.StringVar(&options.format, "format", "json", "report format (json, csv)")
	flags.StringVar(&options.signatures, "signatures", "", "signature catalog file overriding the embedded one")
	flags.BoolVar(&options.directory, "directory", false, "treat the target as a mounted directory")
	flags.IntVar(&options.physical, "physical", -1, "physical drive number instead of a target path")
	flags.BoolVar(&options.withInsights, "insights", false, "ask the configured AI endpoint for a summary")
	flags.StringVar(&options.keywords, "keywords", "", "extra suspicious path keywords, comma separated")
	return analyzeCommand
}

func runAnalyze(ctx context.Context, target string, options analyzeOptions) error {
	format, err := exporter.ParseFormat(options.format)
	if err != nil {
		return err
	}
	source, datasource, err := resolveSource(target, options.directory, options.physical)
	if err != nil {
		return err
	}

	var signatures []detect.Signature
	if options.signatures != "" {
		signatures, err = detect.LoadSignatures(options.signatures)
		if err != nil {
			return err
		}
	}
	signatureDetector, err := detect.NewSignatureDetector(datasource, signatures)
	if err != nil {
		return err
	}

	manager := analysis.NewManager(analysis.Config{
		Driver:              datasource,
		FilesystemDetector:  detect.NewFilesystemDetector(datasource),
		EncryptionDetectors: []detect.Detector{signatureDetector, detect.NewHeuristicDetector(datasource)},
		MetadataScanner:     scan.NewTreeScanner(datasource, options.depth, options.workers),
		ReportExporter:      exporter.FileExporter{},
		ProgressReporter:    reporter.ConsoleProgress{},
	})
	defer manager.Close()

	session, err := manager.StartSession(source)
	if err != nil {
		return err
	}

	result, err := manager.Analyze(ctx, splitList(options.volumes), !options.skipMetadata)
	cancelled := errors.Is(err, analysis.ErrAnalysisCancelled)
	if err != nil && !cancelled {
		return err
	}

	destination := reportDestination(options.output, format, session.Source.Identifier)
	if _, err := manager.ExportReport(result, destination, format); err != nil {
		return err
	}

	reporter.Reporter{}.ShowSummary(result)
	if cancelled {
		fmt.Println("Analysis cancelled, the report holds the completed volumes only")
		return nil
	}
	if options.withInsights {
		showInsights(ctx, result, splitList(options.keywords))
	}
	return nil
}

// resolveSource pairs the target with the driver that can open it.
func resolveSource(target string, directory bool, physical int) (model.Source, driver.DataSourceDriver, error) {
	if physical >= 0 {
		return model.Source{
			Identifier:  fmt.Sprintf("physicaldrive%d", physical),
			Kind:        model.SourcePhysicalDisk,
			DisplayName: fmt.Sprintf("Physical drive %d", physical),
			Path:        fmt.Sprintf(`\\.\PHYSICALDRIVE%d`, physical),
		}, driver.NewDiskDriver(), nil
	}
	if target == "" {
		return model.Source{}, nil, errors.New("a target image, device or directory is required")
	}
	info, err := os.Stat(target)
	if err != nil {
		// windows device paths do not stat, hand them to the disk driver
		if strings.HasPrefix(target, `\\.\`) {
			return model.Source{
				Identifier:  strings.ToLower(strings.TrimPrefix(target, `\\.\`)),
				Kind:        model.SourcePhysicalDisk,
				DisplayName: target,
				Path:        target,
			}, driver.NewDiskDriver(), nil
		}
		return model.Source{}, nil, errors.Wrapf(err, "cannot access %s", target)
	}
	if directory || info.IsDir() {
		if !info.IsDir() {
			return model.Source{}, nil, errors.Errorf("%s is not a directory", target)
		}
		return model.Source{
			Identifier:  filepath.Base(target),
			Kind:        model.SourceDirectory,
			DisplayName: target,
			Path:        target,
		}, driver.NewDirectoryDriver(), nil
	}
	return model.Source{
		Identifier:  filepath.Base(target),
		Kind:        model.SourceDiskImage,
		DisplayName: filepath.Base(target),
		Path:        target,
	}, driver.NewDiskDriver(), nil
}

// reportDestination keeps file destinations as given, a directory gets a
// derived report filename.
func reportDestination(output string, format exporter.Format, sourceID string) string {
	info, err := os.Stat(output)
	if err == nil && info.IsDir() {
		stamp := time.Now().Format("20060102_150405")
		name := fmt.Sprintf("triage_report_%s_%s.%s", sanitizeName(sourceID), stamp, format)
		return filepath.Join(output, name)
	}
	return output
}

func sanitizeName(name string) string {
	return strings.Map(func(letter rune) rune {
		switch {
		case letter >= 'a' && letter <= 'z', letter >= 'A' && letter <= 'Z',
			letter >= '0' && letter <= '9', letter == '.', letter == '-', letter == '_':
			return letter
		}
		return '_'
	}, name)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func showInsights(ctx context.Context, result *model.AnalysisResult, keywords []string) {
	config := insights.LoadConfig()
	if config == nil {
		fmt.Println("AI insights skipped: no API key and endpoint configured")
		return
	}
	service := insights.NewService(*config, keywords...)
	verdict, err := service.Summarize(ctx, result)
	if err != nil {
		fmt.Printf("AI insights failed: %v\n", err)
		return
	}
	printSection("Summary", verdict.Summary)
	printSection("Suspicious", verdict.Suspicious)
	printSection("Next steps", verdict.NextSteps)
}

func printSection(title, body string) {
	if body == "" {
		return
	}
	fmt.Printf("\n%s:\n%s\n", title, body)
}
