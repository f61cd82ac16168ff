package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Server Errors (E001-E049)
	// ============================================

	"E001": {
		Category: CategoryServer,
		Message:  "Failed to bind server address",
		Detail:   "The HTTP listener could not be created on the configured address. Another process may already be using the port.",
	},
	"E002": {
		Category: CategoryServer,
		Message:  "Failed to bind websocket address",
		Detail:   "The dedicated websocket listener could not be created on the configured port.",
	},
	"E003": {
		Category: CategoryServer,
		Message:  "Failed to bind trigger address",
		Detail:   "The reload trigger listener could not be created on the configured port.",
	},

	// ============================================
	// Watch Errors (E050-E099)
	// ============================================

	"E050": {
		Category: CategoryWatch,
		Message:  "Failed to start file watcher",
		Detail:   "The embedded file watcher could not be initialized. On Linux this can be caused by the inotify instance limit.",
	},
	"E051": {
		Category: CategoryWatch,
		Message:  "Watch path does not exist",
		Detail:   "A configured watch path could not be found on disk.",
	},

	// ============================================
	// Config Errors (E100-E199)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "Ports must be between 0 and 65535.",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Port collision",
		Detail:   "Two listeners are configured on the same port.",
	},
	"E140": {
		Category: CategoryConfig,
		Message:  "Root directory not found",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Root path is not a directory",
	},
}
