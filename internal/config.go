package internal

import (
	"cow-chat/errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type ServerConfig struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=1337" validate:"min=1,max=65535"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	QueueSize       int           `env:"QUEUE_SIZE,default=64" validate:"min=1"`
	DeliveryTimeout time.Duration `env:"DELIVERY_TIMEOUT,default=2s" validate:"gt=0"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,default=30s" validate:"gte=0"`
	HealthPort      int           `env:"HEALTH_PORT,default=0" validate:"min=0,max=65535"`
	CensoredDir     string        `env:"CENSORED_DIR"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
}

type ClientConfig struct {
	LogLevel          string        `env:"LOG_LEVEL,default=WARN" validate:"oneof=DEBUG INFO WARN ERROR"`
	CommandTimeout    time.Duration `env:"COMMAND_TIMEOUT,default=3s" validate:"gt=0"`
	CompletionTimeout time.Duration `env:"COMPLETION_TIMEOUT,default=500ms" validate:"gt=0"`
	Colours           bool          `env:"COLOURS,default=true"`
	HistoryFile       string        `env:"HISTORY_FILE"`
}

// LoadServerConfig reads an optional .env file, then the environment.
func LoadServerConfig() (ServerConfig, error) {
	var config ServerConfig
	if err := load(&config); err != nil {
		return ServerConfig{}, err
	}
	return config, nil
}

func LoadClientConfig() (ClientConfig, error) {
	var config ClientConfig
	if err := load(&config); err != nil {
		return ClientConfig{}, err
	}
	return config, nil
}

func load(config any) error {
	// A missing .env file is the normal case.
	_ = godotenv.Load()
	if _, err := env.UnmarshalFromEnviron(config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// ParsePort validates a TCP port given on the command line.
func ParsePort(str string) (int, error) {
	port, err := strconv.Atoi(str)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidPort, str)
	}
	return port, nil
}
