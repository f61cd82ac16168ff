// Package static serves a directory tree over HTTP.
//
// Resolver maps request paths onto the filesystem, rejecting traversal and
// absolute-path tricks, resolving directory requests to their index file,
// and signaling trailing-slash redirects for directory URLs. Handler wraps
// a Resolver with content-type selection (extension based, with an
// application/octet-stream fallback), dev no-cache headers, HTML error
// pages, and optional injection of the live-reload client script into HTML
// responses.
package static
