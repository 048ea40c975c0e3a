package export

import (
	"strconv"
	"strings"
	"time"
)

// TimeLayout is how event and recovery times are rendered, in local time.
const TimeLayout = "2006-01-02 15:04:05"

// Headers is the CSV header row. Record.Row emits cells in this order.
var Headers = []string{
	"eventid",
	"r_eventid",
	"severity",
	"name",
	"type",
	"time",
	"recovery_time",
	"duration",
	"duration_readable",
	"acknowledged",
	"hosts",
	"groups",
}

// Record is one enriched event. Nil pointers and empty strings are written
// as empty cells.
type Record struct {
	EventID          string
	REventID         string
	Severity         string
	Name             string
	Type             string
	Time             time.Time
	RecoveryTime     *time.Time
	Duration         *int64
	DurationReadable string
	Acknowledged     string
	Hosts            string
	Groups           string
}

// Row projects the record onto Headers.
func (r Record) Row() []string {
	row := []string{
		r.EventID,
		r.REventID,
		r.Severity,
		r.Name,
		r.Type,
		r.Time.Local().Format(TimeLayout),
		"",
		"",
		r.DurationReadable,
		r.Acknowledged,
		r.Hosts,
		r.Groups,
	}
	if r.RecoveryTime != nil {
		row[6] = r.RecoveryTime.Local().Format(TimeLayout)
	}
	if r.Duration != nil {
		row[7] = strconv.FormatInt(*r.Duration, 10)
	}
	return row
}

// ReadableDuration renders seconds as "1d 1h 1m 1s", dropping leading zero
// units: 45 → "45s", 125 → "2m 5s", 3725 → "1h 2m 5s".
func ReadableDuration(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	days := secs / 86400
	hours := secs % 86400 / 3600
	mins := secs % 3600 / 60
	s := secs % 60

	var b strings.Builder
	switch {
	case days > 0:
		b.WriteString(strconv.FormatInt(days, 10) + "d ")
		fallthrough
	case hours > 0:
		b.WriteString(strconv.FormatInt(hours, 10) + "h ")
		fallthrough
	case mins > 0:
		b.WriteString(strconv.FormatInt(mins, 10) + "m ")
	}
	b.WriteString(strconv.FormatInt(s, 10) + "s")
	return b.String()
}
