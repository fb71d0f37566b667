package cmd

import (
	"context"

	"github.com/aarsakian/CryptoTriage/analysis"
	"github.com/aarsakian/CryptoTriage/detect"
	"github.com/aarsakian/CryptoTriage/driver"
	"github.com/aarsakian/CryptoTriage/reporter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func VolumesCommand() *cobra.Command {
	var directory bool
	var physical int

	volumesCommand := &cobra.Command{
		Use:   "volumes <image|device|directory>",
		Short: "List volumes with filesystem and encryption verdicts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) > 0 {
				target = args[0]
			}
			return runVolumes(cmd.Context(), target, directory, physical)
		},
	}
	volumesCommand.Flags().BoolVar(&directory, "directory", false, "treat the target as a mounted directory")
	volumesCommand.Flags().IntVar(&physical, "physical", -1, "physical drive number instead of a target path")
	return volumesCommand
}

func runVolumes(ctx context.Context, target string, directory bool, physical int) error {
	source, datasource, err := resolveSource(target, directory, physical)
	if err != nil {
		return err
	}
	signatureDetector, err := detect.NewSignatureDetector(datasource, nil)
	if err != nil {
		return err
	}
	manager := analysis.NewManager(analysis.Config{
		Driver:              datasource,
		FilesystemDetector:  detect.NewFilesystemDetector(datasource),
		EncryptionDetectors: []detect.Detector{signatureDetector, detect.NewHeuristicDetector(datasource)},
	})
	defer manager.Close()

	if _, err := manager.StartSession(source); err != nil {
		return err
	}
	analyses, err := manager.TriageVolumes(ctx)
	if err != nil && !errors.Is(err, analysis.ErrAnalysisCancelled) {
		return err
	}
	reporter.Reporter{ShowOffsets: true}.ShowVolumes(analyses)
	return nil
}

func SourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List attached physical drives",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := driver.NewDiskDriver().EnumerateSources()
			if err != nil {
				return err
			}
			reporter.Reporter{}.ShowSources(sources)
			return nil
		},
	}
}
