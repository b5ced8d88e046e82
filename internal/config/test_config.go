package config

import "time"

// TestConfig returns a config suitable for testing: in-memory search, no
// debounce, logging off.
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Database.Path = ":memory:"
	cfg.Database.SearchIndex = ""
	cfg.Search.Backend = BackendMemory
	cfg.Search.Debounce = 0
	cfg.Search.FetchTimeout = time.Second
	cfg.Import.HTTPTimeout = 5 * time.Second
	cfg.Import.UserAgent = "mrkt-test/1.0"
	cfg.Import.AllowPrivate = true
	cfg.Log.Level = "off"
	return cfg
}
