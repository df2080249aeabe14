// Package domain holds the core business types for the ingestion pipeline:
// raw pages as fetched, their canonical section/block representation,
// embedding-ready chunks, and the sync bookkeeping records.
//
// Types here have no infrastructure dependencies. Adapters translate
// between these types and whatever the outside world speaks.
package domain
