package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// WebSocket transport errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Adapter / wire protocol errors
	CodeUnsupportedExchange:    "Exchange is not supported",
	CodeUnsupportedMarketType:  "Market type is not supported for this exchange",
	CodeUnsupportedMessageType: "Message type is not supported for this exchange",
	CodeInvalidPair:            "Invalid trading pair",
	CodeInvalidChannel:         "Invalid channel",
	CodeSubscribeFailed:        "Failed to subscribe to channel",
	CodeExchangeFatalFrame:     "Exchange sent a fatal frame",

	// Catalog / REST errors
	CodeCatalogFetchFailed:  "Failed to fetch trading pair catalog",
	CodeSnapshotFetchFailed: "Failed to fetch REST snapshot",

	// Cache errors
	CodeCacheMiss:    "Cache miss",
	CodeCacheExpired: "Cache entry expired",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
