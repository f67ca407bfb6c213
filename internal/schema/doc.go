// Package schema holds the entity metadata the query compiler reads: fields
// with their columns and types, relations between entities, and primary keys.
//
// Metadata is assembled once at startup into a Registry, either from Go
// literals (NewRegistry) or from CUE files (LoadDir). A Registry is frozen
// after construction and safe for concurrent readers.
package schema
