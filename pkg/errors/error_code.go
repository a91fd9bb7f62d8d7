package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrderAction   ErrorCode = 102
	ErrCodeInvalidTakeProfit    ErrorCode = 103
	ErrCodeInvalidStopLoss      ErrorCode = 104
	ErrCodeInvalidOrder         ErrorCode = 105
	ErrCodeInvalidWindow        ErrorCode = 106
	ErrCodeInvalidSize          ErrorCode = 107

	// Market data errors (200-299)
	ErrCodeCandlesUnavailable ErrorCode = 200
	ErrCodeCandleSyncFailed   ErrorCode = 201
	ErrCodeQueryFailed        ErrorCode = 202
	ErrCodeNoDataFound        ErrorCode = 203

	// Strategy errors (400-499)
	ErrCodeStrategyActivation   ErrorCode = 400
	ErrCodeStrategyDeactivation ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402
	ErrCodeUnsupportedAction    ErrorCode = 403

	// Settlement errors (500-599)
	ErrCodeSettlementFailed  ErrorCode = 500
	ErrCodeLedgerViolation   ErrorCode = 501
	ErrCodeOrderNotActive    ErrorCode = 502
	ErrCodeInvalidExecution  ErrorCode = 503
	ErrCodeUnknownMarketType ErrorCode = 504

	// Simulation errors (600-699)
	ErrCodeSimulationConfigError ErrorCode = 600
	ErrCodeSimulationAborted     ErrorCode = 601
	ErrCodeNoDeployments         ErrorCode = 602
	ErrCodeNoSubscriptions       ErrorCode = 603

	// Pricing errors (700-799)
	ErrCodePriceLookupFailed ErrorCode = 700
	ErrCodePriceNotFound     ErrorCode = 701

	// Persistence errors (800-899)
	ErrCodeReportSaveFailed ErrorCode = 800
	ErrCodeReportNotFound   ErrorCode = 801
)
