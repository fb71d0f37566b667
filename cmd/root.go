// Package cmd wires the command line interface around the analysis manager.
package cmd

import (
	"fmt"

	"github.com/aarsakian/CryptoTriage/logger"
	EWFLogger "github.com/aarsakian/EWF_Reader/logger"
	VMDKLogger "github.com/aarsakian/VMDK_Reader/logger"
	"github.com/spf13/cobra"
)

// Version is stamped by the build.
var Version = "dev"

func RootCommand() *cobra.Command {
	var logLevel string
	var logFile string

	rootCommand := &cobra.Command{
		Use:           "cryptotriage",
		Short:         "Triage disks and disk images for encrypted volumes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.InitializeLogger(logLevel, logFile); err != nil {
				return err
			}
			// the reader libraries keep their own loggers
			fileLogging := logFile != "" && logFile != "console"
			EWFLogger.InitializeLogger(fileLogging, logFile)
			VMDKLogger.InitializeLogger(fileLogging, logFile)
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (debug, info, warning, error)")
	rootCommand.PersistentFlags().StringVar(&logFile, "logfile", "cryptotriage.log", "log destination, console logs to stderr")
	rootCommand.AddCommand(AnalyzeCommand(), VolumesCommand(), SourcesCommand(), VersionCommand())
	return rootCommand
}

func VersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("cryptotriage " + Version)
		},
	}
}
