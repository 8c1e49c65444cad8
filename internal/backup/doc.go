// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package backup takes point-in-time backups of the DuckDB database.

A backup is DuckDB's EXPORT DATABASE output (schema.sql, load.sql and one
file per table) packed into a gzipped tar:

	folio-backup-20260102T030405Z-1a2b3c4d.tar.gz
	└── folio-export/
	    ├── schema.sql
	    ├── load.sql
	    └── blogs.csv, tags.csv, ...

Archives are staged in a hidden directory next to the final location and
renamed into place, so a crash never leaves a partial archive with a valid
name. After each backup, archives beyond the retention count are pruned.

Only names matching the archive pattern are accepted by Open and Delete;
any other name is ErrNotFound.

# Restore

Restoring is done offline:

	tar -xzf folio-backup-....tar.gz
	duckdb /data/folio.duckdb "IMPORT DATABASE 'folio-export'"
*/
package backup
