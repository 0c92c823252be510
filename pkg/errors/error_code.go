package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidInterval      ErrorCode = 102
	ErrCodeInsufficientData     ErrorCode = 103
	ErrCodeInvalidRiskParams    ErrorCode = 104

	// Market data errors (200-299)
	ErrCodeNoMarketData       ErrorCode = 200
	ErrCodeSeriesMisaligned   ErrorCode = 201
	ErrCodeTickOutOfRange     ErrorCode = 202
	ErrCodeMarketConfigError  ErrorCode = 203
	ErrCodeMarketSeriesEmpty  ErrorCode = 204
	ErrCodeTimestampUnordered ErrorCode = 205

	// Strategy errors (300-399)
	ErrCodeUnknownStrategy      ErrorCode = 300
	ErrCodeStrategyConfigError  ErrorCode = 301
	ErrCodeStrategyRuntimeError ErrorCode = 302

	// Execution errors (400-499)
	ErrCodeInvalidTrade    ErrorCode = 400
	ErrCodeInvalidEquity   ErrorCode = 401
	ErrCodeInvalidPosition ErrorCode = 402

	// Simulation errors (500-599)
	ErrCodeAgentProcessing  ErrorCode = 500
	ErrCodeSimulationSetup  ErrorCode = 501
	ErrCodeSimulationFailed ErrorCode = 502
	ErrCodeNoAgents         ErrorCode = 503
	ErrCodeRunCancelled     ErrorCode = 504

	// Metrics errors (600-699)
	ErrCodeMetricsInput ErrorCode = 600

	// Sink errors (700-799)
	ErrCodeSinkInitFailed  ErrorCode = 700
	ErrCodeSinkWriteFailed ErrorCode = 701
	ErrCodeSinkQueryFailed ErrorCode = 702
	ErrCodeSinkExportError ErrorCode = 703
)
