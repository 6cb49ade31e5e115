// Package database is the persistent store behind the repositories: Bun
// connection management for MySQL, PostgreSQL and SQLite, YAML configuration,
// table migrations with inline foreign keys, SQL seed files, error
// classification, and query hooks.
package database
