// Package postgres implements the article and vector store ports on
// PostgreSQL with the pgvector extension.
//
// Articles live in a plain table; vectors live in article_vectors with one
// row per (article, field) and are ranked with the cosine distance operator
// (<=>). Connections come from a pgxpool shared by both stores.
package postgres
