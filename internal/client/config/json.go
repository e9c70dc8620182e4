package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avolkov/gameshelf/internal/flagx"
)

// JsonConfig is the DTO for the optional JSON config file. The timeout is a
// duration string ("10s", "1m30s"); empty fields leave the current value
// untouched.
type JsonConfig struct {
	BackendAddr    string `json:"backend_addr"`
	APIKey         string `json:"api_key"`
	DatabasePath   string `json:"database_path"`
	LogFile        string `json:"log_file"`
	RequestTimeout string `json:"request_timeout"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. No flag, no file, nothing happens. Read and parse errors
// panic; a broken config file should stop startup, not be silently skipped.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BackendAddr != "" {
		cfg.BackendAddr = jc.BackendAddr
	}
	if jc.APIKey != "" {
		cfg.APIKey = jc.APIKey
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.LogFile != "" {
		cfg.LogFile = jc.LogFile
	}
	if jc.RequestTimeout != "" {
		d, err := time.ParseDuration(jc.RequestTimeout)
		if err != nil {
			panic(err)
		}
		cfg.RequestTimeout = d
	}
}
