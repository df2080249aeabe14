// Package confluence implements the DocumentSource port over a
// Confluence-style content REST API.
//
// The connector pages through a CQL search ordered by last-modified
// ascending, expanding body content, version, ancestors and space
// metadata. Transient failures are retried with exponential backoff,
// rate-limit responses honour the server's Retry-After hint, and other
// client errors fail the fetch immediately.
package confluence
