package storage

import (
	"context"

	"github.com/dshills/callcampaign-mcp/internal/query"
	"github.com/dshills/callcampaign-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying campaign clients
type Storage interface {
	// Campaign operations
	CreateCampaign(ctx context.Context, campaign *types.Campaign) error
	GetCampaign(ctx context.Context, campaignID int64) (*types.Campaign, error)
	ActiveCampaign(ctx context.Context, area string) (*types.Campaign, error)

	// Client operations
	UpsertClient(ctx context.Context, client *types.Client) error
	GetClient(ctx context.Context, clientID int64) (*types.Client, error)
	CountClients(ctx context.Context, campaignID int64) (int, error)

	// Search operations
	MatchClients(ctx context.Context, filter query.Filter, limit int) ([]*types.Client, error)
	StreamClients(ctx context.Context, filter query.Filter) (ClientCursor, error)

	// Status operations
	GetStatus(ctx context.Context, campaignID int64) (*CampaignStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// ClientCursor is a forward-only iterator over the clients matching a filter.
// It holds a database connection until Close is called.
type ClientCursor interface {
	// Next advances to the next client, returning false when the cursor is
	// exhausted or failed
	Next() bool
	// Client scans the current row
	Client() (*types.Client, error)
	// Err reports the error that stopped iteration, if any
	Err() error
	// Close releases the cursor. It is safe to call more than once.
	Close() error
}

// CampaignStatus contains statistics about a campaign's client population
type CampaignStatus struct {
	Campaign     *types.Campaign
	ClientsCount int
	IndexSizeMB  float64
	Health       HealthStatus
}

// HealthStatus represents the health of the store
type HealthStatus struct {
	DatabaseAccessible bool
	SchemaVersion      string
}
