// Package content is the CMS module that serves site content: the front
// page listing, section listings, individual pages by ID or alias (with an
// optional JSON format), and the admin-gated editing routes.
//
// Storage is pluggable: MemoryStore for databaseless sites and tests,
// PgStore over pgx with embedded goose migrations for real deployments.
package content
