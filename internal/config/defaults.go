package config

import "time"

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "metatree"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "metatree:"

	DefaultEnviPathBaseURL = "https://envipath.org"
	DefaultChemTkBaseURL   = "http://localhost:8765"

	DefaultDataDir = "./data"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 4

	DefaultMetricsNamespace = "metatree"
)

// Identifiers of the enviPath packages curated by default: EAWAG soil,
// sludge, and the Biocatalysis/Biodegradation Database.
var DefaultEnviPathPackages = []string{
	"5882df9c-dae1-4d80-a40e-db4724271456",
	"7932e576-03c7-4106-819d-fe80dc605b8a",
	"32de3cf4-e3e6-4168-956e-32fa5ddb0ce1",
}

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields already set by the caller are left unchanged so that explicit
// configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "metatree"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 24 * time.Hour
	}

	if cfg.EnviPath.BaseURL == "" {
		cfg.EnviPath.BaseURL = DefaultEnviPathBaseURL
	}
	if len(cfg.EnviPath.Packages) == 0 {
		cfg.EnviPath.Packages = append([]string(nil), DefaultEnviPathPackages...)
	}
	if cfg.EnviPath.RequestTimeout == 0 {
		cfg.EnviPath.RequestTimeout = 60 * time.Second
	}
	if cfg.EnviPath.MaxRetries == 0 {
		cfg.EnviPath.MaxRetries = 3
	}
	if cfg.EnviPath.RetryBackoff == 0 {
		cfg.EnviPath.RetryBackoff = 2 * time.Second
	}
	if cfg.EnviPath.UserAgent == "" {
		cfg.EnviPath.UserAgent = "metatree-curator"
	}

	if cfg.ChemTk.BaseURL == "" {
		cfg.ChemTk.BaseURL = DefaultChemTkBaseURL
	}
	if cfg.ChemTk.RequestTimeout == 0 {
		cfg.ChemTk.RequestTimeout = 30 * time.Second
	}
	if cfg.ChemTk.MaxRetries == 0 {
		cfg.ChemTk.MaxRetries = 2
	}
	if cfg.ChemTk.RetryBackoff == 0 {
		cfg.ChemTk.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.ChemTk.CacheTTL == 0 {
		cfg.ChemTk.CacheTTL = 12 * time.Hour
	}

	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = DefaultDataDir
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}
