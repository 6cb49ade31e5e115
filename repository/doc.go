// Package repository provides generic, Bun-backed repositories for the
// connected office entities: CRUD by primary key, predicate queries, and a
// device repository that eager-loads categories and zones.
package repository
