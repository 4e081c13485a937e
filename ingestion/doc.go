// Package ingestion imports tab separated corpora into an entry repository.
//
// Each line of a corpus holds one entry:
//
//	primary[<TAB>secondary[<TAB>key=value;key=value]]
//
// Blank lines and lines starting with '#' are ignored. Entries are written in
// batches, one unit of work per batch, and a failed batch is retried with
// exponential backoff. Files are memory-mapped rather than read into memory.
package ingestion
