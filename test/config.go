package test

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_ADDR targets an already running server; empty starts one in-process
	ServerAddr string `envconfig:"E2E_SERVER_ADDR"`
	// E2E_COMMAND_TIMEOUT bounds every command round trip
	CommandTimeout string `envconfig:"E2E_COMMAND_TIMEOUT" default:"3s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
