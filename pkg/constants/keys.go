package constants

type ContextKey string

const (
	LoggerKey   ContextKey = "logger"
	PoolKey     ContextKey = "pool"
	TxKey       ContextKey = "tx"
	ParamsKey   ContextKey = "params"
	UserKey     ContextKey = "user"
	TenantIDKey ContextKey = "tenantID"
	RequestIDKey ContextKey = "requestID"
)
