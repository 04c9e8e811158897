package configs

import (
	"flag"
	"os"

	"github.com/hilthontt/huddle/internal/infrastructure/env"
)

var configCandidates = []string{
	"./config.yaml",
	"./config.yml",
	"/etc/huddle/config.yaml",
	"/app/config.yaml", // common in Docker
}

// DetermineConfigPath resolves the config file from the --config flag, the
// HUDDLE_CONFIG env or the first existing candidate. An empty result means
// defaults and env only.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("HUDDLE_CONFIG", "")
	}

	if configPath == "" {
		configPath = firstExisting(configCandidates)
	}

	return configPath
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
