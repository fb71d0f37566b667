package analysis

import (
	log "github.com/sirupsen/logrus"
)

// ProgressReporter receives human readable progress. A negative percentage
// means the step has no meaningful position in the overall run.
type ProgressReporter interface {
	Update(message string, percentage int)
}

// LogProgressReporter is the default reporter, it writes progress to the log.
type LogProgressReporter struct{}

func NewLogProgressReporter() *LogProgressReporter {
	return &LogProgressReporter{}
}

func (reporter *LogProgressReporter) Update(message string, percentage int) {
	if percentage >= 0 {
		log.Infof("progress %d%%: %s", percentage, message)
		return
	}
	log.Infof("progress: %s", message)
}
