// Package storage provides SQLite-based persistence for campaigns and their
// clients.
//
// The storage layer manages:
//   - Campaign metadata (name, area, active flag)
//   - Client records (name, first name, normalized phone)
//   - Campaign membership
//
// # Database Schema
//
// Tables:
//   - campaigns: Campaigns grouped by area
//   - clients: One row per phone number; name and firstname are nullable
//   - client_campaigns: Membership of clients in campaigns
//   - schema_version: Applied migrations (semantic versions)
//
// # Basic Usage
//
//	store, err := storage.Open(ctx, "/var/lib/campaigns/clients.db", storage.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	campaign := &types.Campaign{Name: "spring", Area: "north", Active: true}
//	err = store.CreateCampaign(ctx, campaign)
//
// # Filtered Queries
//
// MatchClients and StreamClients accept a query.Filter. Every query is joined
// on campaign membership, and each filter condition is rendered as
// `column REGEXP ?` with the pattern bound as a parameter. The REGEXP function
// is registered on the driver and backed by Go's regexp package, with an LRU
// of compiled patterns.
//
// StreamClients returns a ClientCursor that reads rows one at a time. The
// cursor holds the database connection until it is closed:
//
//	cursor, err := store.StreamClients(ctx, filter)
//	if err != nil {
//	    return err
//	}
//	defer cursor.Close()
//
//	for cursor.Next() {
//	    client, err := cursor.Client()
//	    ...
//	}
//	return cursor.Err()
//
// # Transactions
//
// Use transactions for atomic bulk writes:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	for _, client := range clients {
//	    if err := tx.UpsertClient(ctx, client); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// # Drivers
//
// The default build uses modernc.org/sqlite (pure Go). Building with
// -tags sqlite_cgo switches to github.com/mattn/go-sqlite3.
package storage
