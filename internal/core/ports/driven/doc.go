// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them: the Confluence connector implements DocumentSource, the
// SQLite and in-memory stores implement MetadataStore, the Ollama and
// OpenAI adapters implement EmbeddingService, and the memory and pgvector
// indexes implement VectorIndex.
package driven
