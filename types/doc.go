// Package types holds small value types shared by models and repositories.
package types
