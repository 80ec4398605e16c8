// Package scan provides in-memory row cursors: a materialized sorted
// stream with save/restore, plus select, project, product and distinct
// wrappers over any query.Scan.
package scan
