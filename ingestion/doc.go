// Package ingestion provisions a movie index from catalog files.
//
// LoadFile reads a JSON array or JSON Lines file of movie objects. The
// Indexer embeds each document's text on a worker pool, upserts documents
// in batches with retry and backoff, and records a checkpoint after every
// batch so an interrupted load resumes where it stopped.
package ingestion
