package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/callcampaign-mcp/internal/storage"
	"github.com/dshills/callcampaign-mcp/pkg/types"
)

// ErrImportInProgress is returned when an import is already running
var ErrImportInProgress = errors.New("an import is already in progress")

const defaultBatchSize = 200

// Importer loads client rosters into the store
type Importer struct {
	storage storage.Storage
	logger  *slog.Logger
	lock    importLock

	// Worker pool configuration
	workers   int
	batchSize int

	onImport func(campaignID int64)
}

// Config contains configuration for the importer
type Config struct {
	Workers   int          // Concurrent entry validators (default: runtime.NumCPU())
	BatchSize int          // Clients committed per transaction (default: 200)
	Logger    *slog.Logger // nil discards import logs

	// OnImport runs after a roster is committed, typically to invalidate
	// cached resolutions
	OnImport func(campaignID int64)
}

// Statistics contains statistics about an import
type Statistics struct {
	CampaignID      int64
	CampaignCreated bool
	ClientsImported int
	ClientsFailed   int
	Duration        time.Duration
	ErrorMessages   []string
}

// New creates a new Importer instance
func New(store storage.Storage, cfg Config) *Importer {
	imp := &Importer{
		storage:   store,
		logger:    cfg.Logger,
		workers:   cfg.Workers,
		batchSize: cfg.BatchSize,
		onImport:  cfg.OnImport,
	}
	if imp.workers <= 0 {
		imp.workers = runtime.NumCPU()
	}
	if imp.batchSize <= 0 {
		imp.batchSize = defaultBatchSize
	}
	if imp.logger == nil {
		imp.logger = slog.New(slog.DiscardHandler)
	}
	return imp
}

// Importing reports whether an import is running
func (imp *Importer) Importing() bool {
	return imp.lock.held()
}

// ImportFile loads the roster at path
func (imp *Importer) ImportFile(ctx context.Context, path string) (*Statistics, error) {
	roster, err := LoadRosterFile(path)
	if err != nil {
		return nil, err
	}
	return imp.Import(ctx, roster)
}

// Import validates every roster entry and upserts the valid ones into the
// roster's campaign. Invalid entries are counted and reported in
// Statistics.ErrorMessages without failing the import.
func (imp *Importer) Import(ctx context.Context, roster *Roster) (*Statistics, error) {
	if !imp.lock.tryAcquire() {
		return nil, ErrImportInProgress
	}
	defer imp.lock.release()

	startTime := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}

	campaign, created, err := imp.resolveCampaign(ctx, roster.Campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve campaign: %w", err)
	}
	stats.CampaignID = campaign.ID
	stats.CampaignCreated = created

	// Committed batches stay committed when a later batch fails
	defer func() {
		if imp.onImport != nil && stats.ClientsImported > 0 {
			imp.onImport(campaign.ID)
		}
	}()

	clients, err := imp.validateEntries(ctx, roster.Clients, campaign.ID, stats)
	if err != nil {
		return nil, err
	}

	if err := imp.writeClients(ctx, clients, stats); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(startTime)
	imp.logger.InfoContext(ctx, "roster imported",
		"campaign", campaign.ID,
		"created", created,
		"imported", stats.ClientsImported,
		"failed", stats.ClientsFailed,
		"duration", stats.Duration)
	return stats, nil
}

// resolveCampaign returns the targeted campaign, creating it when no id
// is given
func (imp *Importer) resolveCampaign(ctx context.Context, rc RosterCampaign) (*types.Campaign, bool, error) {
	if rc.ID > 0 {
		campaign, err := imp.storage.GetCampaign(ctx, rc.ID)
		if err != nil {
			return nil, false, err
		}
		return campaign, false, nil
	}

	campaign := &types.Campaign{Name: rc.Name, Area: rc.Area, Active: rc.Active}
	if err := imp.storage.CreateCampaign(ctx, campaign); err != nil {
		return nil, false, err
	}
	return campaign, true, nil
}

// validateEntries normalizes entries concurrently. The returned slice keeps
// roster order and omits invalid entries.
func (imp *Importer) validateEntries(ctx context.Context, entries []RosterEntry, campaignID int64, stats *Statistics) ([]*types.Client, error) {
	clients := make([]*types.Client, len(entries))
	failures := make([]error, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imp.workers)
	for i := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			client, err := entries[i].toClient(campaignID)
			if err != nil {
				failures[i] = err
				return nil
			}
			clients[i] = client
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	valid := make([]*types.Client, 0, len(entries))
	for i, client := range clients {
		if failures[i] != nil {
			stats.ClientsFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("entry %d: %v", i+1, failures[i]))
			continue
		}
		valid = append(valid, client)
	}
	return valid, nil
}

// writeClients upserts clients in batches, one transaction per batch.
// Batches run sequentially.
func (imp *Importer) writeClients(ctx context.Context, clients []*types.Client, stats *Statistics) error {
	for i := 0; i < len(clients); i += imp.batchSize {
		end := i + imp.batchSize
		if end > len(clients) {
			end = len(clients)
		}
		if err := imp.writeBatch(ctx, clients[i:end]); err != nil {
			return fmt.Errorf("failed to import clients %d-%d: %w", i+1, end, err)
		}
		stats.ClientsImported += end - i
	}
	return nil
}

// writeBatch upserts a batch within a transaction
func (imp *Importer) writeBatch(ctx context.Context, batch []*types.Client) error {
	tx, err := imp.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, client := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := tx.UpsertClient(ctx, client); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
