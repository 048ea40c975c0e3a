package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kidoz/zabbix-event-export-go/internal/config"
	"github.com/kidoz/zabbix-event-export-go/internal/export"
	"github.com/kidoz/zabbix-event-export-go/internal/metrics"
	"github.com/kidoz/zabbix-event-export-go/internal/prompt"
)

func runExport(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	cfg := GetConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := prompt.New(os.Stdin, cmd.OutOrStdout(), log)
	req, err := gatherRequest(p, cfg)
	if err != nil {
		return err
	}

	rec := metrics.New()
	defer func() {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("Failed to write metrics textfile", zap.String("path", cfg.Metrics.Textfile), zap.Error(err))
		}
	}()

	x, err := initExporter(cfg, log, rec)
	if err != nil {
		return fmt.Errorf("failed to initialize exporter: %w", err)
	}

	log.Info("Starting export", zap.String("mode", string(req.Mode)), zap.String("url", cfg.APIURL))
	summary, err := x.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	log.Info("Export completed",
		zap.String("api_version", summary.APIVersion),
		zap.Int("events", summary.Events),
		zap.String("file", summary.Output),
		zap.Duration("duration", summary.Duration),
	)
	p.Success("%d events written to %s", summary.Events, summary.Output)
	return nil
}

// gatherRequest asks for everything in the order an operator expects:
// output file, mode, timeframe, then connection details. The resolved API
// URL is stored back into cfg for the client.
func gatherRequest(p *prompt.Prompter, cfg *config.Config) (export.Request, error) {
	var req export.Request

	output, err := p.OutputFilename()
	if err != nil {
		return req, err
	}
	req.Output = output

	mode, err := p.Mode()
	if err != nil {
		return req, err
	}
	req.Mode = mode

	if mode == export.ModeHistory {
		req.From, req.Till, err = p.Timeframe()
		if err != nil {
			return req, err
		}
	}

	url, err := p.APIURL(cfg.APIURL)
	if err != nil {
		return req, err
	}
	cfg.APIURL = url

	req.Username, req.Password, err = p.Credentials(cfg.User.Username, cfg.User.Password)
	if err != nil {
		return req, err
	}
	return req, nil
}
