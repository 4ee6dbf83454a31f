package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Addr returns host:port for the listener. The default port matches the
// socket endpoint the web client is built against.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8082
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns
// their values along with a map indicating which flags were explicitly
// set (explicit flags win over env and file).
func ParseCommandFlags() (addr string, dbPath string, cfgPath string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", ":8082", "listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *dbPtr, *cfgPtr, setFlags
}

// ResolveConfigPath decides the config file path using the flag value and
// DRAWSYNC_CONFIG when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("DRAWSYNC_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

// LoadEnvOverrides applies environment overrides onto cfg and reports
// whether any env vars were used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false
	if v := os.Getenv("DRAWSYNC_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("DRAWSYNC_DB_PATH"); v != "" {
		envUsed = true
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("DRAWSYNC_JWT_SECRET"); v != "" {
		envUsed = true
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("DRAWSYNC_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DRAWSYNC_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			envUsed = true
			cfg.Relay.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("DRAWSYNC_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			envUsed = true
			cfg.Relay.RateLimit.Burst = n
		}
	}
	if c := os.Getenv("DRAWSYNC_TLS_CERT"); c != "" {
		envUsed = true
		cfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("DRAWSYNC_TLS_KEY"); k != "" {
		envUsed = true
		cfg.Server.TLS.KeyFile = k
	}
	if v := os.Getenv("DRAWSYNC_MAINT_CRON"); v != "" {
		envUsed = true
		cfg.Maintenance.Enabled = true
		cfg.Maintenance.Cron = v
	}
	return envUsed
}

// LoadEffective loads the config file (missing file yields defaults),
// applies env overrides and fills remaining defaults.
func LoadEffective(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		cfg = &Config{}
	}
	envUsed := LoadEnvOverrides(cfg)
	cfg.fillDefaults()
	return cfg, envUsed, nil
}

func (c *Config) fillDefaults() {
	if c.Server.DBPath == "" {
		c.Server.DBPath = "./.database"
	}
	if c.Auth.HandshakeTimeout.Duration() <= 0 {
		c.Auth.HandshakeTimeout = Duration(10 * time.Second)
	}
	if c.Relay.SendBuffer <= 0 {
		c.Relay.SendBuffer = 32
	}
	if c.Relay.WriteTimeout.Duration() <= 0 {
		c.Relay.WriteTimeout = Duration(10 * time.Second)
	}
	if c.Relay.MaxMessageSize.Int64() <= 0 {
		c.Relay.MaxMessageSize = SizeBytes(64 << 10)
	}
}
