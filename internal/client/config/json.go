package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/flagx"
	"github.com/dmitrijs2005/cenkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	DatabasePath        string         `json:"database_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	MatchLookback       timex.Duration `json:"match_lookback"`
	KeyRotationInterval timex.Duration `json:"key_rotation_interval"`
	OwnKeyCount         int            `json:"own_key_count"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Zero-valued JSON fields leave the existing Config values untouched, so
// the intended usage remains: defaults -> parseJson -> parseFlags, where
// later stages override earlier ones. Read or unmarshal errors panic.
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

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.MatchLookback.Duration != 0 {
		cfg.MatchLookback = time.Duration(jc.MatchLookback.Duration)
	}
	if jc.KeyRotationInterval.Duration != 0 {
		cfg.KeyRotationInterval = time.Duration(jc.KeyRotationInterval.Duration)
	}
	if jc.OwnKeyCount != 0 {
		cfg.OwnKeyCount = jc.OwnKeyCount
	}
}
