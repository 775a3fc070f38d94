// Package services holds the ingestion and query logic of litsearch.
//
// SyncCoordinator keeps the relational store and the vector store in step
// for every article, and QueryEngine answers free-text queries by merging
// per-field nearest-neighbour hits with relational date filters. Both talk
// to infrastructure only through the driven ports.
package services
