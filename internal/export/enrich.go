package export

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kidoz/zabbix-event-export-go/internal/telemetry"
	"github.com/kidoz/zabbix-event-export-go/internal/zabbix"
)

// nameSeparator joins host and group names in one cell.
const nameSeparator = ", "

// TriggerLookup is what the pipeline needs from the API: the linked trigger
// and, for historical events, the recovery event's clock.
type TriggerLookup interface {
	GetTrigger(ctx context.Context, triggerID string) (*zabbix.Trigger, error)
	GetEventClock(ctx context.Context, eventID string) (string, error)
}

// Enricher turns raw events into Records. Each call costs one trigger.get
// and, for recovered historical events, one event.get.
type Enricher struct {
	api    TriggerLookup
	log    *zap.Logger
	legacy bool
}

// NewEnricher builds an Enricher for the given API version. Zabbix 3.x and
// older events carry neither severity nor name; those come from the trigger.
func NewEnricher(api TriggerLookup, apiVersion string, log *zap.Logger) *Enricher {
	return &Enricher{
		api:    api,
		log:    log,
		legacy: zabbix.IsLegacyVersion(apiVersion),
	}
}

// timing is the time-derived part of a record.
type timing struct {
	time         time.Time
	recoveryTime *time.Time
	duration     *int64
	readable     string
}

// Enrich runs the pipeline on one event. ev is not modified.
func (e *Enricher) Enrich(ctx context.Context, ev zabbix.Event) (Record, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "Enricher.Enrich")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", ev.EventID))

	t, err := e.resolveTiming(ctx, ev)
	if err != nil {
		return Record{}, err
	}

	trigger, err := e.api.GetTrigger(ctx, ev.ObjectID)
	if err != nil {
		return Record{}, err
	}
	if trigger == nil && ev.TriggerSourced() {
		return Record{}, fmt.Errorf("%w: trigger %s not found", ErrMalformedEvent, ev.ObjectID)
	}

	severity, err := resolveSeverity(ev, trigger, e.legacy)
	if err != nil {
		return Record{}, err
	}

	acknowledged, err := resolveAcknowledged(ev)
	if err != nil {
		return Record{}, err
	}

	hosts, groups := resolveHostsAndGroups(ev, trigger)

	rec := Record{
		EventID:          ev.EventID,
		REventID:         deref(ev.REventID),
		Severity:         severity,
		Name:             resolveName(ev, trigger, e.legacy),
		Type:             eventType(ev.Tags),
		Time:             t.time,
		RecoveryTime:     t.recoveryTime,
		Duration:         t.duration,
		DurationReadable: t.readable,
		Acknowledged:     acknowledged,
		Hosts:            hosts,
		Groups:           groups,
	}

	e.log.Debug("Enriched event",
		zap.String("eventid", rec.EventID),
		zap.String("severity", rec.Severity),
		zap.String("duration", rec.DurationReadable),
	)
	return rec, nil
}

// resolveTiming picks the recovery clock from r_clock (problems) or from the
// recovery event named by r_eventid (historical events).
func (e *Enricher) resolveTiming(ctx context.Context, ev zabbix.Event) (timing, error) {
	var rClock string
	switch {
	case ev.RClock != nil:
		rClock = *ev.RClock
	case ev.REventID != nil:
		if *ev.REventID != "0" {
			clock, err := e.api.GetEventClock(ctx, *ev.REventID)
			if err != nil {
				return timing{}, fmt.Errorf("recovery event of %s: %w", ev.EventID, err)
			}
			rClock = clock
			e.log.Debug("Resolved recovery clock", zap.String("eventid", ev.EventID), zap.String("r_clock", rClock))
		}
	default:
		return timing{}, fmt.Errorf("%w: event %s has neither r_clock nor r_eventid", ErrMalformedEvent, ev.EventID)
	}

	return computeTiming(ev.Clock, rClock)
}

// computeTiming derives times and duration. An empty or "0" rClock means
// the problem is not resolved.
func computeTiming(clock, rClock string) (timing, error) {
	start, err := parseClock(clock)
	if err != nil {
		return timing{}, err
	}
	t := timing{time: time.Unix(start, 0)}
	if rClock == "" || rClock == "0" {
		return t, nil
	}

	end, err := parseClock(rClock)
	if err != nil {
		return timing{}, err
	}
	if end < start {
		return timing{}, fmt.Errorf("%w: recovery clock %s before clock %s", ErrMalformedEvent, rClock, clock)
	}

	recovery := time.Unix(end, 0)
	duration := end - start
	t.recoveryTime = &recovery
	t.duration = &duration
	t.readable = ReadableDuration(duration)
	return t, nil
}

func parseClock(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad clock %q", ErrMalformedEvent, s)
	}
	return v, nil
}

// resolveSeverity uses the event's own severity on 4.x and newer. Legacy
// events take the trigger priority when trigger-sourced and otherwise keep
// whatever the event carried.
func resolveSeverity(ev zabbix.Event, trigger *zabbix.Trigger, legacy bool) (string, error) {
	if !legacy {
		return SeverityLabel(ev.Severity)
	}
	if ev.TriggerSourced() && trigger != nil {
		return SeverityLabel(trigger.Priority)
	}
	return ev.Severity, nil
}

func resolveName(ev zabbix.Event, trigger *zabbix.Trigger, legacy bool) string {
	if legacy && trigger != nil {
		return trigger.Description
	}
	return ev.Name
}

func resolveHostsAndGroups(ev zabbix.Event, trigger *zabbix.Trigger) (hosts, groups string) {
	if !ev.TriggerSourced() || trigger == nil {
		return "", ""
	}

	hostNames := make([]string, 0, len(trigger.Hosts))
	for _, h := range trigger.Hosts {
		hostNames = append(hostNames, h.Name)
	}
	hostGroups := trigger.HostGroups()
	groupNames := make([]string, 0, len(hostGroups))
	for _, g := range hostGroups {
		groupNames = append(groupNames, g.Name)
	}
	return strings.Join(hostNames, nameSeparator), strings.Join(groupNames, nameSeparator)
}

// eventType returns the value of the first tag named "type".
func eventType(tags []zabbix.Tag) string {
	for _, tag := range tags {
		if tag.Tag == "type" {
			return tag.Value
		}
	}
	return ""
}

// resolveAcknowledged maps the code when present. Problems from 3.x servers
// do not carry it and stay empty.
func resolveAcknowledged(ev zabbix.Event) (string, error) {
	if ev.Acknowledged == nil {
		return "", nil
	}
	return AcknowledgedLabel(*ev.Acknowledged)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
