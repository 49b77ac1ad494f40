package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"piodex/internal/model"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL          string
	BackendURL      string
	RouterAddress   string
	FactoryAddress  string
	PrivateKey      string
	SlippagePPM     uint32
	DeadlineMinutes int
	ApproveMax      bool
	JournalPath     string
	PostgresDSN     string
	LogLevel        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PIODEX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("slippage-ppm", uint32(5000))
	v.SetDefault("deadline-minutes", 20)
	v.SetDefault("approve-max", true)
	v.SetDefault("journal", "./data/transactions.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		BackendURL:      v.GetString("backend"),
		RouterAddress:   v.GetString("router"),
		FactoryAddress:  v.GetString("factory"),
		PrivateKey:      v.GetString("private-key"),
		SlippagePPM:     v.GetUint32("slippage-ppm"),
		DeadlineMinutes: v.GetInt("deadline-minutes"),
		ApproveMax:      v.GetBool("approve-max"),
		JournalPath:     v.GetString("journal"),
		PostgresDSN:     v.GetString("pg-dsn"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.SlippagePPM > model.FeeDenominator/2 {
		return fmt.Errorf("slippage %d ppm exceeds the 50%% ceiling", c.SlippagePPM)
	}
	if c.DeadlineMinutes <= 0 {
		return fmt.Errorf("deadline must be positive, got %d minutes", c.DeadlineMinutes)
	}
	return nil
}
