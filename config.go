package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from an optional YAML file
// with environment-variable overrides on top.
type Config struct {
	Port        int    `yaml:"port"`
	DBPath      string `yaml:"db_path"`
	CompanyName string `yaml:"company_name"`
	// OpsMailbox receives composed quote requests and contact inquiries.
	OpsMailbox string `yaml:"ops_mailbox"`
	// AOGMailbox receives aircraft-on-ground emergency requests.
	AOGMailbox string `yaml:"aog_mailbox"`
	// QuoteSessionTTLMinutes controls how long an idle visitor quote
	// session is kept before being swept.
	QuoteSessionTTLMinutes int `yaml:"quote_session_ttl_minutes"`
}

func defaultConfig() *Config {
	return &Config{
		Port:                   9000,
		DBPath:                 "aeroparts.db",
		CompanyName:            "AeroParts Trading",
		OpsMailbox:             "sales@example.com",
		AOGMailbox:             "aog@example.com",
		QuoteSessionTTLMinutes: 60,
	}
}

// loadConfig reads path if it exists, then applies AERO_* environment
// overrides. A missing file is not an error; a malformed one is.
func loadConfig(path string) (*Config, error) {
	c := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, c); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if v := os.Getenv("AERO_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("AERO_PORT: %w", err)
		}
		c.Port = p
	}
	if v := os.Getenv("AERO_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("AERO_COMPANY_NAME"); v != "" {
		c.CompanyName = v
	}
	if v := os.Getenv("AERO_OPS_MAILBOX"); v != "" {
		c.OpsMailbox = v
	}
	if v := os.Getenv("AERO_AOG_MAILBOX"); v != "" {
		c.AOGMailbox = v
	}

	if c.Port <= 0 || c.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", c.Port)
	}
	if c.QuoteSessionTTLMinutes <= 0 {
		c.QuoteSessionTTLMinutes = 60
	}
	return c, nil
}
