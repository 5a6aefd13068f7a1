// Package sqlite persists filtering runs and their per-frame results.
//
// All SQL for the lidar packages lives here, keeping the filters and the
// pipeline free of database concerns. The schema itself is owned and
// migrated by internal/db.
package sqlite
