// Package db owns the SQLite database used to record filtering runs.
//
// It opens the database with the connection pragmas every store relies on
// and applies the embedded schema migrations. Table access lives in
// internal/lidar/storage/sqlite; this package only manages the connection
// and the schema.
package db
