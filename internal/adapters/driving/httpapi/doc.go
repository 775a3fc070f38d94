// Package httpapi exposes ingestion and querying over HTTP.
//
// Routes:
//
//	POST /v1/articles          ingest one raw article or an array of them
//	GET  /v1/articles/{key}    fetch a stored article
//	GET  /v1/query             ranked results as JSON
//	GET  /v1/query.csv         ranked results as CSV
//	GET  /healthz              liveness
//
// Query parameters for both query routes: q, from, to, display, limit, parse_dates.
// Caller errors map to 400, missing articles to 404 and collaborator failures to 503.
package httpapi
