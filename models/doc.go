// Package models defines the connected office entities and registers their
// tables and foreign keys with the database package.
package models
