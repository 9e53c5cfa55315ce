// Package catalog records finished pipeline stages and decides which of them
// may lose their artifacts.
//
// A stage is purgeable when it has completed, its artifacts have not been
// deleted yet, it is not marked keep, its pipeline/stage pair is not
// protected, and (with keep-latest) a newer completed run of the same
// pipeline/stage exists. Purgeable stages are returned oldest completion
// first, ties broken by ID.
//
// Backends live in subpackages: memory, sqlstore (SQLite or PostgreSQL via
// GORM) and badger. catalogtest holds the conformance suite all of them pass.
package catalog
