// Package server implements the liveserve development server.
//
// A Server runs up to three listeners:
//
//   - the main HTTP listener, serving the static directory tree with the
//     reload client script injected into HTML, plus the websocket reload
//     endpoint at /_liveserve/reload
//   - an optional dedicated websocket listener (--ws-port)
//   - the localhost-only trigger listener, exposing POST /reload for
//     external build tools, GET /healthz, and GET /metrics
//
// The ReloadServer is the broadcast hub: browsers subscribe over the
// websocket endpoint, and each trigger (external POST or a change batch
// from the embedded watcher) fans out exactly one message per subscriber.
// Stylesheet-only change batches are pushed as CSS hot-swap messages so
// the page keeps its state.
package server
