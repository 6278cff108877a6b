package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix namespaces every environment variable, e.g. INTERVIEW_SERVER_ADDR.
const EnvPrefix = "INTERVIEW"

// Configuration keys
const (
	KeyAddr            = "server.addr"
	KeyAllowedOrigins  = "server.allowed_origins"
	KeyJWTSecret       = "auth.jwt_secret"
	KeyEnforceDuration = "rooms.enforce_duration"
	KeyDefaultDuration = "rooms.default_duration_minutes"
	KeyIdleTTL         = "rooms.idle_ttl"
	KeyPasskeyCost     = "rooms.passkey_cost"
	KeyStrictRouting   = "signaling.strict_routing"
	KeyMaxMessageSize  = "ws.max_message_size"
	KeySendBuffer      = "ws.send_buffer"
	KeyLogLevel        = "log.level"
)

// Default configuration values
const (
	DefaultAddr            = ":8080"
	DefaultDurationMinutes = 60
	DefaultIdleTTL         = 24 * time.Hour
	DefaultMaxMessageSize  = 64 * 1024
	DefaultSendBuffer      = 256
	DefaultLogLevel        = "info"
)

// Config holds the server configuration
type Config struct {
	Addr           string
	AllowedOrigins []string
	JWTSecret      string

	EnforceDuration bool
	DefaultDuration time.Duration
	IdleTTL         time.Duration
	PasskeyCost     int

	StrictRouting  bool
	MaxMessageSize int64
	SendBuffer     int

	LogLevel string
}

// BindFlags registers the server flags on fs and binds them to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("addr", DefaultAddr, "Address to listen on")
	fs.StringSlice("allowed-origins", []string{"*"}, "Origins allowed to open connections")
	fs.String("jwt-secret", "", "Secret used to sign admin tokens")
	fs.Bool("enforce-duration", false, "Close rooms once their duration has elapsed")
	fs.Int("default-duration", DefaultDurationMinutes, "Duration in minutes for rooms created without one")
	fs.Duration("idle-ttl", DefaultIdleTTL, "Remove rooms that nobody joins within this time (0 disables)")
	fs.Int("passkey-cost", bcrypt.DefaultCost, "bcrypt cost for room passkeys")
	fs.Bool("strict-routing", true, "Only relay WebRTC signals to the sender's roommate")
	fs.Int64("max-message-size", DefaultMaxMessageSize, "Largest accepted websocket frame in bytes")
	fs.Int("send-buffer", DefaultSendBuffer, "Outbound frames queued per connection")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")

	bindings := map[string]string{
		KeyAddr:            "addr",
		KeyAllowedOrigins:  "allowed-origins",
		KeyJWTSecret:       "jwt-secret",
		KeyEnforceDuration: "enforce-duration",
		KeyDefaultDuration: "default-duration",
		KeyIdleTTL:         "idle-ttl",
		KeyPasskeyCost:     "passkey-cost",
		KeyStrictRouting:   "strict-routing",
		KeyMaxMessageSize:  "max-message-size",
		KeySendBuffer:      "send-buffer",
		KeyLogLevel:        "log-level",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyAddr, DefaultAddr)
	v.SetDefault(KeyAllowedOrigins, []string{"*"})
	v.SetDefault(KeyEnforceDuration, false)
	v.SetDefault(KeyDefaultDuration, DefaultDurationMinutes)
	v.SetDefault(KeyIdleTTL, DefaultIdleTTL)
	v.SetDefault(KeyPasskeyCost, bcrypt.DefaultCost)
	v.SetDefault(KeyStrictRouting, true)
	v.SetDefault(KeyMaxMessageSize, DefaultMaxMessageSize)
	v.SetDefault(KeySendBuffer, DefaultSendBuffer)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// LOG_LEVEL is still honoured for compatibility with older deployments.
	v.BindEnv(KeyLogLevel, EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")

	return v
}

// Load reads configuration with the following priority:
// 1. CLI flags (bound with BindFlags) - highest priority
// 2. Environment variables
// 3. Config file, when configFile is set
// 4. Defaults - lowest priority
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Addr:            v.GetString(KeyAddr),
		AllowedOrigins:  splitList(v.GetStringSlice(KeyAllowedOrigins)),
		JWTSecret:       v.GetString(KeyJWTSecret),
		EnforceDuration: v.GetBool(KeyEnforceDuration),
		DefaultDuration: time.Duration(v.GetInt(KeyDefaultDuration)) * time.Minute,
		IdleTTL:         v.GetDuration(KeyIdleTTL),
		PasskeyCost:     v.GetInt(KeyPasskeyCost),
		StrictRouting:   v.GetBool(KeyStrictRouting),
		MaxMessageSize:  v.GetInt64(KeyMaxMessageSize),
		SendBuffer:      v.GetInt(KeySendBuffer),
		LogLevel:        v.GetString(KeyLogLevel),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("server address is empty"))
	}
	if c.PasskeyCost < bcrypt.MinCost || c.PasskeyCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("passkey cost %d outside [%d, %d]", c.PasskeyCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.DefaultDuration <= 0 {
		errs = append(errs, errors.New("default duration must be positive"))
	}
	if c.IdleTTL < 0 {
		errs = append(errs, errors.New("idle ttl must not be negative"))
	}
	if c.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("max message size must be positive"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, errors.New("send buffer must be positive"))
	}
	return errors.Join(errs...)
}

// splitList accepts both "a b" and "a,b" for list values coming from the
// environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
