package export

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kidoz/zabbix-event-export-go/internal/metrics"
	"github.com/kidoz/zabbix-event-export-go/internal/telemetry"
	"github.com/kidoz/zabbix-event-export-go/internal/zabbix"
)

// Mode selects which API method supplies the events.
type Mode string

const (
	// ModeHistory exports events from event.get over a timeframe.
	ModeHistory Mode = "History"
	// ModeRecent exports current and recently resolved problems from problem.get.
	ModeRecent Mode = "Recent"
)

// API is the part of the Zabbix client an export run drives.
type API interface {
	TriggerLookup
	GetAPIVersion(ctx context.Context) (string, error)
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	GetEvents(ctx context.Context, params zabbix.Params) ([]zabbix.Event, error)
	GetProblems(ctx context.Context, params zabbix.Params) ([]zabbix.Event, error)
}

// Request holds everything gathered from the user for one run.
type Request struct {
	Mode     Mode
	From     time.Time
	Till     time.Time
	Output   string
	Username string
	Password string
}

// Summary describes a finished run.
type Summary struct {
	APIVersion string
	Events     int
	Output     string
	Duration   time.Duration
}

// Exporter runs login → query → enrich → write CSV → logout.
type Exporter struct {
	api     API
	log     *zap.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewExporter creates an Exporter. rec may be nil.
func NewExporter(api API, log *zap.Logger, rec *metrics.Recorder) *Exporter {
	return &Exporter{
		api:     api,
		log:     log,
		metrics: rec,
		now:     time.Now,
	}
}

// Run performs one export. Every event is enriched before the CSV file is
// created, so a failing event leaves no file behind.
func (x *Exporter) Run(ctx context.Context, req Request) (summary *Summary, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "Exporter.Run")
	defer span.End()
	span.SetAttributes(attribute.String("export.mode", string(req.Mode)))

	start := x.now()
	defer func() {
		end := x.now()
		x.metrics.ObserveRun(end.Sub(start), end, err)
		if err != nil {
			span.RecordError(err)
		}
	}()

	version, err := x.api.GetAPIVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get API version: %w", err)
	}
	x.log.Info("Connected to Zabbix", zap.String("api_version", version))

	if err := x.api.Login(ctx, req.Username, req.Password); err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	loggedIn := true
	defer func() {
		if !loggedIn {
			return
		}
		// Failure path only; the success path logs out explicitly below.
		if lerr := x.api.Logout(context.WithoutCancel(ctx)); lerr != nil {
			x.log.Warn("Logout after failed run did not succeed", zap.Error(lerr))
		}
	}()

	events, err := x.query(ctx, req)
	if err != nil {
		return nil, err
	}
	x.log.Info("Fetched events", zap.Int("count", len(events)), zap.String("mode", string(req.Mode)))

	enricher := NewEnricher(x.api, version, x.log)
	records := make([]Record, 0, len(events))
	for _, ev := range events {
		rec, err := enricher.Enrich(ctx, ev)
		if err != nil {
			return nil, fmt.Errorf("failed to process event %s: %w", ev.EventID, err)
		}
		records = append(records, rec)
	}

	x.log.Info("Writing CSV", zap.String("file", req.Output), zap.Int("rows", len(records)))
	if err := writeCSVFile(req.Output, records); err != nil {
		return nil, err
	}

	loggedIn = false
	if err := x.api.Logout(ctx); err != nil {
		return nil, fmt.Errorf("failed to log out: %w", err)
	}

	x.metrics.AddEvents(string(req.Mode), len(records))

	return &Summary{
		APIVersion: version,
		Events:     len(records),
		Output:     req.Output,
		Duration:   x.now().Sub(start),
	}, nil
}

func (x *Exporter) query(ctx context.Context, req Request) ([]zabbix.Event, error) {
	switch req.Mode {
	case ModeHistory:
		events, err := x.api.GetEvents(ctx, historyParams(req.From, req.Till))
		if err != nil {
			return nil, fmt.Errorf("failed to get events: %w", err)
		}
		return events, nil
	case ModeRecent:
		problems, err := x.api.GetProblems(ctx, recentParams())
		if err != nil {
			return nil, fmt.Errorf("failed to get problems: %w", err)
		}
		return problems, nil
	default:
		return nil, fmt.Errorf("unknown export mode %q", req.Mode)
	}
}

func historyParams(from, till time.Time) zabbix.Params {
	return zabbix.Params{
		"output":             "extend",
		"time_from":          from.Unix(),
		"time_till":          till.Unix(),
		"value":              []int{1, 2, 3},
		"selectAcknowledges": "extend",
		"selectTags":         "extend",
		"sortfield":          []string{"clock"},
		"sortorder":          "ASC",
	}
}

func recentParams() zabbix.Params {
	return zabbix.Params{
		"output":             "extend",
		"recent":             true,
		"selectAcknowledges": "extend",
		"selectTags":         "extend",
		"sortfield":          []string{"eventid"},
		"sortorder":          "ASC",
	}
}
