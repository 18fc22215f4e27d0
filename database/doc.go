// Package database provides connection management, configuration, query
// hooks, SQL error classification, entity registration and table bootstrap
// built on top of Bun.
package database
