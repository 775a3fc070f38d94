// Package normalisers cleans scraped article text before ingestion.
package normalisers
