package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const consoleOutput = "console"

// Formatter prefixes every line with timestamp and level, matching the
// historical plain-text log layout of the tool.
type Formatter struct {
	log.TextFormatter
}

func (formatter *Formatter) Format(entry *log.Entry) ([]byte, error) {
	timestamp := entry.Time.Format(formatter.TimestampFormat)
	return []byte(fmt.Sprintf("%s CryptoTriage|%s: %s\n", timestamp, formatter.levelName(entry.Level), entry.Message)), nil
}

func (formatter *Formatter) levelName(level log.Level) string {
	switch level {
	case log.WarnLevel:
		return "WARNING"
	default:
		return map[log.Level]string{
			log.PanicLevel: "PANIC",
			log.FatalLevel: "FATAL",
			log.ErrorLevel: "ERROR",
			log.InfoLevel:  "INFO",
			log.DebugLevel: "DEBUG",
			log.TraceLevel: "TRACE",
		}[level]
	}
}

// InitializeLogger configures the process-wide logrus logger. An empty or
// "console" path logs to stderr, anything else becomes a rotated logfile.
func InitializeLogger(logLevel string, logPath string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	if logPath != "" && logPath != consoleOutput {
		rotated := &lumberjack.Logger{
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    5,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		}
		log.SetOutput(io.Writer(rotated))
	} else {
		log.SetOutput(os.Stderr)
	}

	log.SetFormatter(&Formatter{log.TextFormatter{TimestampFormat: "2006-01-02 15:04:05"}})
	log.SetLevel(level)
	return nil
}
