// Package importer loads campaign client rosters into the client store.
//
// A roster is a YAML document naming a campaign and its clients. Phones are
// normalized by dropping spaces, dots, dashes and parentheses; entries whose
// phone is still not an optional '+' followed by digits are skipped and
// reported. Valid entries are upserted by phone, so re-importing a roster
// updates names and adds campaign membership without duplicating clients.
//
// # Basic Usage
//
//	imp := importer.New(store, importer.Config{
//	    Workers:  4,
//	    OnImport: func(int64) { res.InvalidateCache() },
//	})
//
//	stats, err := imp.ImportFile(ctx, "/data/spring.yaml")
//	if errors.Is(err, importer.ErrImportInProgress) {
//	    // another import holds the lock
//	}
//	fmt.Printf("imported %d clients, %d rejected\n",
//	    stats.ClientsImported, stats.ClientsFailed)
//
// Only one import runs at a time per Importer. Entries are validated
// concurrently and written in batches, one transaction per batch.
package importer
