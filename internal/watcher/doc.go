// Package watcher monitors the served directory tree for file changes.
//
// The watcher uses fsnotify for change notifications, registers directories
// recursively (including directories created after startup), filters events
// through configurable ignore patterns, and reports changes in debounced
// batches so editors that write multiple files in quick succession produce
// a single reload.
//
// Changes are classified by extension (ChangeCSS, ChangeMarkup, ChangeAsset)
// so the server can hot-swap stylesheets without a full page reload.
package watcher
