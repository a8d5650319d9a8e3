// Package services contains the core business logic: the incremental
// sync engine, the retrieval-augmented answer pipeline and the plain
// search service. Services depend only on the driven ports; all
// network and filesystem specifics live in adapters.
package services
