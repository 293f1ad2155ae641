package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/dshills/callcampaign-mcp/internal/config"
	"github.com/dshills/callcampaign-mcp/internal/mcp"
	"github.com/dshills/callcampaign-mcp/internal/storage"
	"github.com/dshills/callcampaign-mcp/pkg/types"
)

// runServe runs the MCP server on stdio until stdin closes or a signal
// arrives
func runServe(cfg *config.Config, args []string, stderr io.Writer) error {
	if len(args) > 0 {
		return fmt.Errorf("serve: unexpected argument %q", args[0])
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	a.logger.Info("campaignd starting",
		"version", version,
		"build_mode", storage.BuildMode,
		"driver", storage.DriverName,
		"db", cfg.DBPath)

	server, err := mcp.NewServer(mcp.Dependencies{
		Storage:  a.store,
		Resolver: a.resolver,
		Importer: a.importer,
		Metrics:  a.metrics,
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if cfg.Metrics.Addr != "" {
		metricsServer := a.startMetrics(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Start server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		a.logger.Info("shutting down", "signal", sig.String())
		cancel()
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	a.logger.Info("server stopped")
	return nil
}

// startMetrics serves the Prometheus registry on addr in the background
func (a *app) startMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("metrics listener started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics listener failed", "addr", addr, "error", err)
		}
	}()
	return srv
}

// resolveOutput is printed by the resolve command
type resolveOutput struct {
	Found      bool          `json:"found"`
	Pass       types.Pass    `json:"pass"`
	Score      float64       `json:"score"`
	CampaignID int64         `json:"campaign_id"`
	Candidates int           `json:"candidates"`
	Truncated  bool          `json:"truncated"`
	Client     *clientOutput `json:"client,omitempty"`
	Message    string        `json:"message,omitempty"`
}

type clientOutput struct {
	ID        int64   `json:"id"`
	Name      *string `json:"name"`
	Firstname *string `json:"firstname"`
	Phone     string  `json:"phone"`
}

// runResolve runs a single resolution and prints the result as JSON
func runResolve(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	var (
		name, firstName      string
		area                 string
		campaignID           int64
		phoneStart, phoneEnd string
	)

	flagSet := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&name, "name", "", "client last name")
	flagSet.StringVar(&firstName, "first-name", "", "client first name")
	flagSet.Int64Var(&campaignID, "campaign", 0, "campaign id")
	flagSet.StringVar(&area, "area", "", "area whose active campaign is searched when --campaign is not set")
	flagSet.StringVar(&phoneStart, "phone-start", "", "leading phone digits")
	flagSet.StringVar(&phoneEnd, "phone-end", "", "trailing phone digits")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("resolve: unexpected argument %q", flagSet.Arg(0))
	}
	if campaignID <= 0 && strings.TrimSpace(area) == "" {
		return fmt.Errorf("resolve: --campaign or --area is required")
	}
	if strings.TrimSpace(name) == "" && strings.TrimSpace(firstName) == "" &&
		strings.TrimSpace(phoneStart) == "" && strings.TrimSpace(phoneEnd) == "" {
		return fmt.Errorf("resolve: --name, --first-name, --phone-start or --phone-end is required")
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var campaign *types.Campaign
	if campaignID > 0 {
		campaign, err = a.store.GetCampaign(ctx, campaignID)
	} else {
		campaign, err = a.store.ActiveCampaign(ctx, strings.TrimSpace(area))
	}
	if err != nil {
		return fmt.Errorf("failed to load campaign: %w", err)
	}

	req := types.SearchRequest{
		Name:       name,
		FirstName:  firstName,
		CampaignID: campaign.ID,
	}
	if flagSet.Changed("phone-start") {
		req.PhoneFragmentStart = &phoneStart
	}
	if flagSet.Changed("phone-end") {
		req.PhoneFragmentEnd = &phoneEnd
	}

	result, err := a.resolver.Resolve(ctx, req)
	if err != nil {
		return err
	}

	out := resolveOutput{
		Found:      result.IsFound(),
		Pass:       result.Pass,
		Score:      result.Score,
		CampaignID: campaign.ID,
		Candidates: result.Candidates,
		Truncated:  result.Truncated,
	}
	if result.IsFound() {
		out.Client = &clientOutput{
			ID:        result.Client.ID,
			Name:      result.Client.Name,
			Firstname: result.Client.Firstname,
			Phone:     result.Client.Phone,
		}
	} else {
		out.Message = "no client found"
	}
	return writeJSON(stdout, out)
}

// importOutput is printed by the import command
type importOutput struct {
	CampaignID      int64    `json:"campaign_id"`
	CampaignCreated bool     `json:"campaign_created"`
	ClientsImported int      `json:"clients_imported"`
	ClientsFailed   int      `json:"clients_failed"`
	DurationMS      int64    `json:"duration_ms"`
	Errors          []string `json:"errors"`
}

// runImport loads a roster file into the store
func runImport(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("import: exactly one roster path is required")
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	stats, err := a.importer.ImportFile(ctx, args[0])
	if err != nil {
		return err
	}

	return writeJSON(stdout, importOutput{
		CampaignID:      stats.CampaignID,
		CampaignCreated: stats.CampaignCreated,
		ClientsImported: stats.ClientsImported,
		ClientsFailed:   stats.ClientsFailed,
		DurationMS:      stats.Duration.Milliseconds(),
		Errors:          stats.ErrorMessages,
	})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
