package scan

import "sync"

// ProgressCallback receives scan progress. Percent only moves when a
// directory finishes, kind and path describe the entry being visited and are
// empty on the initial call.
type ProgressCallback func(percent int, kind string, path string)

// progressTracker keeps the processed versus known directory counts and
// serves percentages to the callback. Workers share one tracker, announce and
// markProcessed may be called from any goroutine.
type progressTracker struct {
	callback   ProgressCallback
	mu         sync.Mutex
	processed  int
	totalKnown int
	percent    int
}

func newProgressTracker(callback ProgressCallback) *progressTracker {
	tracker := &progressTracker{callback: callback}
	if callback != nil {
		tracker.totalKnown = 1
		callback(0, "", "")
	}
	return tracker
}

func (tracker *progressTracker) addChildren(count int) {
	if tracker.callback == nil || count <= 0 {
		return
	}
	tracker.mu.Lock()
	tracker.totalKnown += count
	tracker.mu.Unlock()
}

// announce reports the current entry without advancing the percentage.
func (tracker *progressTracker) announce(kind, path string) {
	if tracker.callback == nil {
		return
	}
	tracker.mu.Lock()
	percent := tracker.percent
	tracker.mu.Unlock()
	tracker.callback(percent, kind, path)
}

// markProcessed counts one finished directory and recomputes the percentage
// against everything known so far.
func (tracker *progressTracker) markProcessed(kind, path string) {
	if tracker.callback == nil {
		return
	}
	tracker.mu.Lock()
	tracker.processed++
	total := tracker.totalKnown
	if total < 1 {
		total = 1
	}
	tracker.percent = int(float64(tracker.processed) / float64(total) * 100)
	if tracker.percent > 100 {
		tracker.percent = 100
	}
	percent := tracker.percent
	tracker.mu.Unlock()
	tracker.callback(percent, kind, path)
}
