package config

// EnvPrefix is handed to envconfig; every field carries an explicit name.
const EnvPrefix = "PLANNER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	JournalDriverSQLite   = "sqlite"
	JournalDriverPostgres = "postgres"
	JournalDriverNone     = "none"
)

const (
	EnvAppEnv           = "PLANNER_APP_ENV"
	EnvLogLevel         = "PLANNER_LOG_LEVEL"
	EnvTimeZone         = "PLANNER_TIMEZONE"
	EnvAPIBaseURL       = "PLANNER_API_BASE_URL"
	EnvAPITimeout       = "PLANNER_API_TIMEOUT"
	EnvUserID           = "PLANNER_USER_ID"
	EnvAuthToken        = "PLANNER_AUTH_TOKEN"
	EnvSuggestThreshold = "PLANNER_SUGGEST_THRESHOLD"
	EnvRedisURL         = "PLANNER_REDIS_URL"
	EnvCacheTTL         = "PLANNER_CACHE_TTL"
	EnvJournalDriver    = "PLANNER_JOURNAL_DRIVER"
	EnvJournalDSN       = "PLANNER_JOURNAL_DSN"
	EnvMetricsAddr      = "PLANNER_METRICS_ADDR"
	EnvStubPort         = "PLANNER_STUB_PORT"
)
