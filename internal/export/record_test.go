package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestReadableDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "0s"},
		{45, "45s"},
		{60, "1m 0s"},
		{125, "2m 5s"},
		{3600, "1h 0m 0s"},
		{3725, "1h 2m 5s"},
		{86400, "1d 0h 0m 0s"},
		{90061, "1d 1h 1m 1s"},
		{180000, "2d 2h 0m 0s"},
		{-5, "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ReadableDuration(tt.secs); got != tt.want {
				t.Errorf("ReadableDuration(%d) = %q, want %q", tt.secs, got, tt.want)
			}
		})
	}
}

func TestSeverityLabel(t *testing.T) {
	want := map[string]string{
		"0": "0-Not_Classified",
		"1": "1-Information",
		"2": "2-Warning",
		"3": "3-Average",
		"4": "4-High",
		"5": "5-Disaster",
	}
	for code, label := range want {
		got, err := SeverityLabel(code)
		if err != nil {
			t.Errorf("SeverityLabel(%q): %v", code, err)
		}
		if got != label {
			t.Errorf("SeverityLabel(%q) = %q, want %q", code, got, label)
		}
	}

	if _, err := SeverityLabel("6"); !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("unknown code err = %v, want ErrMalformedEvent", err)
	}
}

func TestAcknowledgedLabel(t *testing.T) {
	if got, _ := AcknowledgedLabel("0"); got != "No" {
		t.Errorf("AcknowledgedLabel(0) = %q, want No", got)
	}
	if got, _ := AcknowledgedLabel("1"); got != "Yes" {
		t.Errorf("AcknowledgedLabel(1) = %q, want Yes", got)
	}
	if _, err := AcknowledgedLabel("2"); !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("unknown code err = %v, want ErrMalformedEvent", err)
	}
}

func TestRecord_Row(t *testing.T) {
	start := time.Unix(1600000000, 0)
	end := time.Unix(1600003725, 0)
	duration := int64(3725)

	r := Record{
		EventID:          "1201",
		REventID:         "1305",
		Severity:         "4-High",
		Name:             "CPU load is too high",
		Type:             "cpu",
		Time:             start,
		RecoveryTime:     &end,
		Duration:         &duration,
		DurationReadable: "1h 2m 5s",
		Acknowledged:     "No",
		Hosts:            "web01",
		Groups:           "Linux servers",
	}
	row := r.Row()
	if len(row) != len(Headers) {
		t.Fatalf("len(row) = %d, want %d", len(row), len(Headers))
	}

	want := []string{
		"1201", "1305", "4-High", "CPU load is too high", "cpu",
		start.Format(TimeLayout), end.Format(TimeLayout), "3725", "1h 2m 5s",
		"No", "web01", "Linux servers",
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("%s = %q, want %q", Headers[i], row[i], want[i])
		}
	}
}

func TestRecord_Row_Unresolved(t *testing.T) {
	r := Record{EventID: "7", Time: time.Unix(1600000000, 0)}
	row := r.Row()
	for _, i := range []int{6, 7, 8, 9} {
		if row[i] != "" {
			t.Errorf("%s = %q, want empty", Headers[i], row[i])
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	records := []Record{
		{EventID: "1", Name: "Disk, full", Time: time.Unix(1600000000, 0), Hosts: "h1, h2"},
		{EventID: "2", Time: time.Unix(1600000100, 0)},
	}
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3:\n%s", len(lines), buf.String())
	}
	wantHeader := "eventid,r_eventid,severity,name,type,time,recovery_time,duration,duration_readable,acknowledged,hosts,groups"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}
	if !strings.Contains(lines[1], `"Disk, full"`) || !strings.Contains(lines[1], `"h1, h2"`) {
		t.Errorf("cells with commas must be quoted: %q", lines[1])
	}
}
