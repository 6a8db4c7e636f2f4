// Package config loads and validates Scribe's YAML configuration.
//
// # Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("scribe.yaml")
//
// The file is decoded on top of DefaultConfig, so every setting is optional
// and a missing file yields a working local setup: the pure-Go SQLite driver
// at data/scribe.db, a file cache under data/cache, all four providers at
// their public endpoints and a self-hosted Ollama on localhost:11434.
//
// # Environment overrides
//
// Any SCRIBE_SECTION_FIELD variable overrides the file, for example
//
//	SCRIBE_SERVER_LISTEN_ADDRESS=0.0.0.0:8090
//	SCRIBE_STORAGE_DRIVER=postgres
//	SCRIBE_STORAGE_DSN=postgres://scribe@db/scribe
//	SCRIBE_PROVIDERS_OPENAI_API_KEY=sk-...
//	SCRIBE_TELEMETRY_LOGGING_LEVEL=debug
//
// # Example
//
//	server:
//	  listen_address: "0.0.0.0:8090"
//	providers:
//	  ollama:
//	    base_url: "http://gpu-box:11434"
//	    verify_model: false
//	  openai:
//	    timeout: 30s
//	storage:
//	  driver: postgres
//	  dsn: "postgres://scribe@db/scribe?sslmode=disable"
//	cache:
//	  backend: redis
//	  redis:
//	    address: "redis:6379"
//	templates:
//	  seed_file: "templates.yaml"
//	  watch: true
//	generation:
//	  batch_concurrency: 8
//	  log:
//	    retention_days: 30
//
// # Singleton
//
// Initialize stores the loaded configuration for GetConfig. Prefer passing
// *Config explicitly; the singleton exists for the CLI entry points.
package config
