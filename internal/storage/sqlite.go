package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/callcampaign-mcp/internal/query"
	"github.com/dshills/callcampaign-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrUnknownField is returned when a filter names a column the store does not expose
	ErrUnknownField = errors.New("unknown filter field")
)

// Options configures how the database is opened
type Options struct {
	Retry  RetryConfig
	Logger *slog.Logger
}

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(ctx context.Context, dbPath string, retry RetryConfig) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// A locked database file is reported on first use. Switching to WAL
	// needs the write lock, so it is retried along with the ping.
	err = retryBusy(ctx, retry, isBusy, func() error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to reach database: %w", err)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance with default options
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	return Open(context.Background(), dbPath, Options{})
}

// Open creates a SQLite storage instance and applies pending migrations
func Open(ctx context.Context, dbPath string, opts Options) (*SQLiteStorage, error) {
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := openDatabase(ctx, dbPath, opts.Retry)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Another process may be migrating the same file
	err = retryBusy(ctx, opts.Retry, isBusy, func() error {
		return ApplyMigrations(ctx, db)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Debug("client store opened", "path", dbPath, "driver", DriverName, "build_mode", BuildMode)
	return &SQLiteStorage{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Campaign operations

// createCampaignWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createCampaignWithQuerier(ctx context.Context, q querier, campaign *types.Campaign) error {
	query := `
		INSERT INTO campaigns (name, area, active, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := q.ExecContext(ctx, query, campaign.Name, campaign.Area, campaign.Active, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	campaign.ID = id
	return nil
}

func (s *SQLiteStorage) CreateCampaign(ctx context.Context, campaign *types.Campaign) error {
	return s.createCampaignWithQuerier(ctx, s.querier(), campaign)
}

const campaignColumns = `id, name, area, active`

func scanCampaign(row *sql.Row) (*types.Campaign, error) {
	var campaign types.Campaign
	err := row.Scan(&campaign.ID, &campaign.Name, &campaign.Area, &campaign.Active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// getCampaignWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getCampaignWithQuerier(ctx context.Context, q querier, campaignID int64) (*types.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = ?`
	return scanCampaign(q.QueryRowContext(ctx, query, campaignID))
}

func (s *SQLiteStorage) GetCampaign(ctx context.Context, campaignID int64) (*types.Campaign, error) {
	return s.getCampaignWithQuerier(ctx, s.querier(), campaignID)
}

// activeCampaignWithQuerier returns the most recent active campaign of an area
func (s *SQLiteStorage) activeCampaignWithQuerier(ctx context.Context, q querier, area string) (*types.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE area = ? AND active = 1
		ORDER BY id DESC
		LIMIT 1
	`
	return scanCampaign(q.QueryRowContext(ctx, query, area))
}

func (s *SQLiteStorage) ActiveCampaign(ctx context.Context, area string) (*types.Campaign, error) {
	return s.activeCampaignWithQuerier(ctx, s.querier(), area)
}

// Client operations

// upsertClientWithQuerier inserts or updates a client keyed by phone and
// adds its campaign memberships
func (s *SQLiteStorage) upsertClientWithQuerier(ctx context.Context, q querier, client *types.Client) error {
	if err := client.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO clients (name, firstname, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(phone) DO UPDATE SET
			name = excluded.name,
			firstname = excluded.firstname,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query, client.Name, client.Firstname, client.Phone, now, now).Scan(&client.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert client: %w", err)
	}

	for _, campaignID := range client.Campaigns {
		_, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO client_campaigns (client_id, campaign_id) VALUES (?, ?)`,
			client.ID, campaignID)
		if err != nil {
			return fmt.Errorf("failed to add client %d to campaign %d: %w", client.ID, campaignID, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) UpsertClient(ctx context.Context, client *types.Client) error {
	return s.upsertClientWithQuerier(ctx, s.querier(), client)
}

// clientColumns selects a client with its comma-separated campaign ids
const clientColumns = `
	c.id, c.name, c.firstname, c.phone,
	(SELECT group_concat(m.campaign_id) FROM client_campaigns m WHERE m.client_id = c.id)
`

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row rowScanner) (*types.Client, error) {
	var client types.Client
	var name, firstname, campaigns sql.NullString
	if err := row.Scan(&client.ID, &name, &firstname, &client.Phone, &campaigns); err != nil {
		return nil, err
	}
	if name.Valid {
		client.Name = &name.String
	}
	if firstname.Valid {
		client.Firstname = &firstname.String
	}
	if campaigns.Valid && campaigns.String != "" {
		for _, field := range strings.Split(campaigns.String, ",") {
			id, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid campaign id %q for client %d: %w", field, client.ID, err)
			}
			client.Campaigns = append(client.Campaigns, id)
		}
	}
	return &client, nil
}

// getClientWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getClientWithQuerier(ctx context.Context, q querier, clientID int64) (*types.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients c WHERE c.id = ?`
	client, err := scanClient(q.QueryRowContext(ctx, query, clientID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return client, err
}

func (s *SQLiteStorage) GetClient(ctx context.Context, clientID int64) (*types.Client, error) {
	return s.getClientWithQuerier(ctx, s.querier(), clientID)
}

// countClientsWithQuerier counts the members of a campaign
func (s *SQLiteStorage) countClientsWithQuerier(ctx context.Context, q querier, campaignID int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM client_campaigns WHERE campaign_id = ?`, campaignID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteStorage) CountClients(ctx context.Context, campaignID int64) (int, error) {
	return s.countClientsWithQuerier(ctx, s.querier(), campaignID)
}

// Search operations

// filterColumn maps a filter field to its column. Only known fields are
// ever written into SQL text; patterns travel as bound parameters.
func filterColumn(field query.Field) (string, error) {
	switch field {
	case query.FieldName:
		return "c.name", nil
	case query.FieldFirstname:
		return "c.firstname", nil
	case query.FieldPhone:
		return "c.phone", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// buildClientQuery renders a campaign-scoped client query for a filter
func buildClientQuery(filter query.Filter, limit int) (string, []interface{}, error) {
	var b strings.Builder
	b.WriteString(`SELECT `)
	b.WriteString(clientColumns)
	b.WriteString(`
		FROM clients c
		JOIN client_campaigns cc ON cc.client_id = c.id
		WHERE cc.campaign_id = ?`)
	args := []interface{}{filter.CampaignID}

	for _, cond := range filter.Conditions {
		column, err := filterColumn(cond.Field)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(` AND `)
		b.WriteString(column)
		b.WriteString(` REGEXP ?`)
		args = append(args, cond.Pattern.String())
	}

	b.WriteString(` ORDER BY c.id`)
	if limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}
	return b.String(), args, nil
}

// matchClientsWithQuerier returns up to limit clients matching the filter
func (s *SQLiteStorage) matchClientsWithQuerier(ctx context.Context, q querier, filter query.Filter, limit int) ([]*types.Client, error) {
	stmt, args, err := buildClientQuery(filter, limit)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	clients := make([]*types.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (s *SQLiteStorage) MatchClients(ctx context.Context, filter query.Filter, limit int) ([]*types.Client, error) {
	return s.matchClientsWithQuerier(ctx, s.querier(), filter, limit)
}

// streamClientsWithQuerier opens a cursor over every client matching the filter
func (s *SQLiteStorage) streamClientsWithQuerier(ctx context.Context, q querier, filter query.Filter) (ClientCursor, error) {
	stmt, args, err := buildClientQuery(filter, 0)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	return &rowsCursor{rows: rows}, nil
}

func (s *SQLiteStorage) StreamClients(ctx context.Context, filter query.Filter) (ClientCursor, error) {
	return s.streamClientsWithQuerier(ctx, s.querier(), filter)
}

// rowsCursor adapts *sql.Rows to ClientCursor
type rowsCursor struct {
	rows *sql.Rows
}

func (c *rowsCursor) Next() bool {
	return c.rows.Next()
}

func (c *rowsCursor) Client() (*types.Client, error) {
	return scanClient(c.rows)
}

func (c *rowsCursor) Err() error {
	return c.rows.Err()
}

func (c *rowsCursor) Close() error {
	return c.rows.Close()
}

// Status operations

func (s *SQLiteStorage) GetStatus(ctx context.Context, campaignID int64) (*CampaignStatus, error) {
	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	status := &CampaignStatus{Campaign: campaign}

	count, err := s.CountClients(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	status.ClientsCount = count

	// Calculate database size
	var pageCount, pageSize int
	err = s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		err = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		if err == nil {
			status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	version, err := CurrentVersion(ctx, s.db)
	status.Health = HealthStatus{
		DatabaseAccessible: err == nil,
		SchemaVersion:      version,
	}

	return status, nil
}

// Transaction operations

func (t *sqliteTx) CreateCampaign(ctx context.Context, campaign *types.Campaign) error {
	return t.storage.createCampaignWithQuerier(ctx, t.querier(), campaign)
}

func (t *sqliteTx) GetCampaign(ctx context.Context, campaignID int64) (*types.Campaign, error) {
	return t.storage.getCampaignWithQuerier(ctx, t.querier(), campaignID)
}

func (t *sqliteTx) ActiveCampaign(ctx context.Context, area string) (*types.Campaign, error) {
	return t.storage.activeCampaignWithQuerier(ctx, t.querier(), area)
}

func (t *sqliteTx) UpsertClient(ctx context.Context, client *types.Client) error {
	return t.storage.upsertClientWithQuerier(ctx, t.querier(), client)
}

func (t *sqliteTx) GetClient(ctx context.Context, clientID int64) (*types.Client, error) {
	return t.storage.getClientWithQuerier(ctx, t.querier(), clientID)
}

func (t *sqliteTx) CountClients(ctx context.Context, campaignID int64) (int, error) {
	return t.storage.countClientsWithQuerier(ctx, t.querier(), campaignID)
}

func (t *sqliteTx) MatchClients(ctx context.Context, filter query.Filter, limit int) ([]*types.Client, error) {
	return t.storage.matchClientsWithQuerier(ctx, t.querier(), filter, limit)
}

func (t *sqliteTx) StreamClients(ctx context.Context, filter query.Filter) (ClientCursor, error) {
	return t.storage.streamClientsWithQuerier(ctx, t.querier(), filter)
}

func (t *sqliteTx) GetStatus(ctx context.Context, campaignID int64) (*CampaignStatus, error) {
	// Status reads outside the transaction; the single connection is held
	// by the transaction, so callers must not use it mid-transaction.
	return nil, errors.New("status is not available inside a transaction")
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
