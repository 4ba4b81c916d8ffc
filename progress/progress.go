// Package progress turns raw download progress into the human readable tuple
// delivered to a single registered observer.
package progress

import (
	"fmt"
	"sync"
	"time"
)

// Observer receives every progress report.
type Observer func(downloaded, total int64, percentage float64, speed, eta, size string)

// Status of an update.
type Status int

const (
	StatusDownloading Status = iota
	StatusFinished
)

// Unit says what Downloaded and Total count.
type Unit int

const (
	UnitBytes Unit = iota
	UnitSegments
)

// Complete is the text sent in every string field of a finished report.
const Complete = "complete"

// NotAvailable is shown for an unknown speed or ETA.
const NotAvailable = "N/A"

// Update is one raw progress event.
type Update struct {
	Status     Status
	Unit       Unit
	Downloaded int64
	// Total is 0 when unknown.
	Total int64
	// Speed in bytes per second, or segments per second with UnitSegments. 0 when unknown.
	Speed float64
	// ETA is 0 when unknown.
	ETA time.Duration
}

// Reporter holds one replaceable observer. Registering nil clears it.
type Reporter struct {
	mu       sync.Mutex
	observer Observer
}

// NewReporter returns a Reporter with no observer.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Register replaces the current observer.
func (r *Reporter) Register(observer Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = observer
}

// Report formats u and calls the observer synchronously. It is a no-op without one.
func (r *Reporter) Report(u Update) {
	r.mu.Lock()
	observer := r.observer
	r.mu.Unlock()

	if observer == nil {
		return
	}

	if u.Status == StatusFinished {
		observer(0, 0, 100, Complete, Complete, Complete)
		return
	}

	var percentage float64
	if u.Total > 0 {
		percentage = float64(u.Downloaded) / float64(u.Total) * 100
	}

	var size, speed string
	switch u.Unit {
	case UnitSegments:
		size = FormatCount(u.Downloaded, u.Total)
		speed = FormatRate(u.Speed, "seg/s")
	default:
		size = FormatSizes(u.Downloaded, u.Total)
		speed = FormatSpeed(u.Speed)
	}

	observer(u.Downloaded, u.Total, percentage, speed, FormatETA(u.ETA), size)
}

// Finish sends the finished report.
func (r *Reporter) Finish() {
	r.Report(Update{Status: StatusFinished})
}

var (
	sizeUnits  = []string{"B", "KB", "MB", "GB"}
	speedUnits = []string{"B/s", "KB/s", "MB/s", "GB/s"}
)

func scale(value float64, units []string, last string) string {
	for _, unit := range units {
		if value < 1024 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.2f %s", value, last)
}

// FormatSize renders n bytes with two decimals in B, KB, MB, GB or TB.
func FormatSize(n int64) string {
	return scale(float64(n), sizeUnits, "TB")
}

// FormatSizes renders "X / Y", or just X when the total is unknown.
func FormatSizes(downloaded, total int64) string {
	if total > 0 {
		return FormatSize(downloaded) + " / " + FormatSize(total)
	}
	return FormatSize(downloaded)
}

// FormatCount renders "N / M segments", or "N segments" when the total is unknown.
func FormatCount(done, total int64) string {
	if total > 0 {
		return fmt.Sprintf("%d / %d segments", done, total)
	}
	return fmt.Sprintf("%d segments", done)
}

// FormatSpeed renders a bytes per second rate, or N/A.
func FormatSpeed(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 {
		return NotAvailable
	}
	return scale(bytesPerSecond, speedUnits, "TB/s")
}

// FormatRate renders a plain per second rate, or N/A.
func FormatRate(perSecond float64, unit string) string {
	if perSecond <= 0 {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f %s", perSecond, unit)
}

// FormatETA renders MM:SS, or HH:MM:SS past an hour, or N/A.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return NotAvailable
	}

	seconds := int64(d / time.Second)
	hours, minutes, secs := seconds/3600, seconds%3600/60, seconds%60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
