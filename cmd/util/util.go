package util

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/srediag/plugin-mq/internal/logging"
	"github.com/srediag/plugin-mq/pkg/mq"
	"github.com/srediag/plugin-mq/pkg/rendezvous"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix prefixes every environment variable read by the CLI.
	EnvPrefix = "mqipc"
)

// Flag keys, shared by flags, viper and the environment.
const (
	KeyToken     = "token"
	KeySeed      = "seed"
	KeyType      = "type"
	KeyPayload   = "payload"
	KeyCapacity  = "capacity"
	KeyStrict    = "strict"
	KeyBackend   = "backend"
	KeyMode      = "mode"
	KeyLogLevel  = "log-level"
	KeyLogDev    = "log-dev"
	KeyAdminAddr = "admin-addr"
	KeyQueueID   = "queue-id"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}
		currentLine.WriteString(word)
		lineWidth += len(word)
	}
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}
	return strings.Join(wrappedLines, "\n")
}

// SetupExchangeFlags adds the flags both sides of an exchange must agree on
func SetupExchangeFlags(cmd *cobra.Command) {
	def := rendezvous.DefaultConfig()
	flags := cmd.PersistentFlags()

	flags.String(KeyToken, def.Token, WrapString("Existing path the queue key is derived from"))
	flags.String(KeySeed, string([]byte{def.Seed}), WrapString("Single non-zero byte mixed into the queue key"))
	flags.Int64(KeyType, def.Type, WrapString("Positive message type used to select the message"))
	flags.String(KeyPayload, def.Payload, WrapString("Text the sender enqueues"))
	flags.Int(KeyCapacity, def.Capacity, WrapString("Size of the message text buffer in bytes"))
	flags.Bool(KeyStrict, false, WrapString("Reject payloads longer than the capacity instead of truncating them"))
	flags.String(KeyBackend, "sysv", WrapString("Queue backend to use (sysv, memory)"))
	flags.String(KeyLogLevel, logging.LevelWarn.String(), WrapString("Log level (trace, debug, info, warn, error, silent or 0-5)"))
	flags.Bool(KeyLogDev, false, WrapString("Human readable console logs instead of JSON"))
}

// InitConfig loads .env files and maps MQIPC_* environment variables onto flag keys
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetExchangeConfig reads the exchange configuration from viper
func GetExchangeConfig() (rendezvous.Config, error) {
	seed := viper.GetString(KeySeed)
	if len(seed) != 1 {
		return rendezvous.Config{}, fmt.Errorf("seed %q must be exactly one byte", seed)
	}
	cfg := rendezvous.Config{
		Token:    viper.GetString(KeyToken),
		Seed:     seed[0],
		Type:     viper.GetInt64(KeyType),
		Payload:  viper.GetString(KeyPayload),
		Capacity: viper.GetInt(KeyCapacity),
		Strict:   viper.GetBool(KeyStrict),
	}
	if err := cfg.Validate(); err != nil {
		return rendezvous.Config{}, err
	}
	return cfg, nil
}

// GetBackend creates the queue backend based on configuration
func GetBackend() (mq.Backend, error) {
	switch viper.GetString(KeyBackend) {
	case "sysv":
		return mq.SysV(), nil
	case "memory":
		return mq.Memory(), nil
	default:
		return nil, fmt.Errorf("invalid backend %s", viper.GetString(KeyBackend))
	}
}

// GetLogger builds the process logger from configuration
func GetLogger() (*logging.Logger, error) {
	cfg := logging.DefaultConfig()
	if s := viper.GetString(KeyLogLevel); s != "" {
		lvl, ok := logging.ParseLevel(s)
		if !ok {
			return nil, fmt.Errorf("invalid log level %s", s)
		}
		cfg.Level = lvl
	}
	cfg.Development = viper.GetBool(KeyLogDev)
	return logging.New(cfg), nil
}

// ExchangeArgs renders the current exchange configuration as flags, so a child
// process sees exactly what its parent resolved.
func ExchangeArgs(cfg rendezvous.Config) []string {
	return []string{
		"--" + KeyToken, cfg.Token,
		"--" + KeySeed, string([]byte{cfg.Seed}),
		"--" + KeyType, fmt.Sprint(cfg.Type),
		"--" + KeyPayload, cfg.Payload,
		"--" + KeyCapacity, fmt.Sprint(cfg.Capacity),
		fmt.Sprintf("--%s=%t", KeyStrict, cfg.Strict),
		"--" + KeyBackend, viper.GetString(KeyBackend),
		"--" + KeyLogLevel, viper.GetString(KeyLogLevel),
		fmt.Sprintf("--%s=%t", KeyLogDev, viper.GetBool(KeyLogDev)),
	}
}
