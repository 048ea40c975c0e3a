package export

import (
	"errors"
	"fmt"
)

// ErrMalformedEvent is returned for events the pipeline cannot interpret.
var ErrMalformedEvent = errors.New("malformed event")

var severityLabels = map[string]string{
	"0": "0-Not_Classified",
	"1": "1-Information",
	"2": "2-Warning",
	"3": "3-Average",
	"4": "4-High",
	"5": "5-Disaster",
}

var acknowledgedLabels = map[string]string{
	"0": "No",
	"1": "Yes",
}

// SeverityLabel maps a Zabbix severity or trigger priority code to its label.
func SeverityLabel(code string) (string, error) {
	label, ok := severityLabels[code]
	if !ok {
		return "", fmt.Errorf("%w: unknown severity code %q", ErrMalformedEvent, code)
	}
	return label, nil
}

// AcknowledgedLabel maps an acknowledgement code to No/Yes.
func AcknowledgedLabel(code string) (string, error) {
	label, ok := acknowledgedLabels[code]
	if !ok {
		return "", fmt.Errorf("%w: unknown acknowledged code %q", ErrMalformedEvent, code)
	}
	return label, nil
}
