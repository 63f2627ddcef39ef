// Package enrich backfills derived metadata for items whose enrichment
// failed at ingestion time.
//
// Items are flagged with NeedsEnrichment when the AI services were
// unavailable during ingestion. The Runner sweeps the flagged set in
// batches, re-enriching and re-embedding each item with retry and progress
// tracking. Items that still fail stay flagged for the next sweep.
package enrich
