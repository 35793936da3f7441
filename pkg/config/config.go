package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCollection = "chat_conversations"
	defaultQdrantURL  = "http://localhost:6334"
)

// Env carries the environment contract of the service. QDRANT_URL and
// QDRANT_API_KEY are the out-of-band store credentials; PORT is set by the
// PaaS.
type Env struct {
	QdrantURL    string `env:"QDRANT_URL"`
	QdrantAPIKey string `env:"QDRANT_API_KEY"`
	Port         int    `env:"PORT"`
	LogLevel     string `env:"CONVOSTORE_LOG_LEVEL"`
	ConfigPath   string `env:"CONVOSTORE_CONFIG"`
}

// ParseCommandFlags parses process flags and reports which were explicitly
// set so callers can apply flag-over-env-over-file precedence.
func ParseCommandFlags() (addr string, cfgPath string, memory bool, set map[string]bool) {
	addrF := flag.String("addr", "", "listen address (host:port), overrides PORT")
	cfgF := flag.String("config", "", "path to YAML config file")
	memF := flag.Bool("memory", false, "use the in-memory backend instead of Qdrant (development)")
	flag.Parse()
	set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return *addrF, *cfgF, *memF, set
}

// Load builds the effective config: file values first, then environment
// overrides. A missing file path is not an error; a present but unreadable
// or malformed file is.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Qdrant.URL = defaultQdrantURL
	cfg.Qdrant.Collection = DefaultCollection

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if e.QdrantURL != "" {
		cfg.Qdrant.URL = e.QdrantURL
	}
	if e.QdrantAPIKey != "" {
		cfg.Qdrant.APIKey = e.QdrantAPIKey
	}
	if e.Port != 0 {
		cfg.Server.Port = e.Port
	}
	if e.LogLevel != "" {
		cfg.Logging.Level = e.LogLevel
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = DefaultCollection
	}
	return cfg, nil
}

// ResolveConfigPath picks the config file path: explicit flag wins, then the
// CONVOSTORE_CONFIG env var, then a conventional ./convostore.yaml if present.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet && flagVal != "" {
		return flagVal
	}
	if p := os.Getenv("CONVOSTORE_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("convostore.yaml"); err == nil {
		return "convostore.yaml"
	}
	return ""
}

// QdrantEndpoint is the parsed gRPC endpoint of the store.
type QdrantEndpoint struct {
	Host   string
	Port   int
	UseTLS bool
}

// ParseQdrantURL translates the QDRANT_URL environment value (a REST-style
// URL) into the gRPC endpoint the client dials. Hosted Qdrant exposes REST on
// 6333 and gRPC on 6334, so the conventional REST port is mapped over.
func ParseQdrantURL(raw string) (QdrantEndpoint, error) {
	ep := QdrantEndpoint{Port: 6334}
	if strings.TrimSpace(raw) == "" {
		return ep, fmt.Errorf("empty qdrant url")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ep, fmt.Errorf("invalid qdrant url %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return ep, fmt.Errorf("invalid qdrant url %q: no host", raw)
	}
	ep.Host = u.Hostname()
	ep.UseTLS = u.Scheme == "https"
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return ep, fmt.Errorf("invalid qdrant port %q", p)
		}
		if n == 6333 {
			n = 6334
		}
		ep.Port = n
	}
	return ep, nil
}
