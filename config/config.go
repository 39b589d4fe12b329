// Package config resolves Matomo settings and server settings from an optional
// YAML file and the environment.
//
// Matomo settings exist under two namespaces: "matomo" and the legacy "piwik".
// MATOMO_IDSITE and PIWIK_IDSITE map to matomo.idsite and piwik.idsite; a YAML file
// uses the same paths:
//
//	matomo:
//	  idsite: 1
//	  url: stats.example.org
//	  protocol: auto
//
// When a key is set in both namespaces the matomo value wins, unless it is
// null or blank.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"matomotrack/api/tracking"
	"matomotrack/api/utils"
)

const (
	currentNamespace = "matomo"
	legacyNamespace  = "piwik"

	// PathEnvVar overrides the config file location.
	PathEnvVar  = "CONFIG_PATH"
	defaultPath = "config.yaml"

	defaultEndpoint = "matomo.php"
)

// serverEnv maps plain environment variables to their koanf paths.
var serverEnv = map[string]string{
	"port":           "server.port",
	"gin_mode":       "server.gin_mode",
	"fe_origin":      "server.fe_origin",
	"jwt_secret_key": "server.jwt_secret_key",
	"relay_timeout":  "server.relay_timeout",
	"log_level":      "log.level",
	"log_format":     "log.format",
}

// Server holds settings for the HTTP service itself.
type Server struct {
	Port         string
	GinMode      string
	FEOrigin     string
	JWTSecret    string
	RelayTimeout time.Duration
	LogLevel     string
	LogFormat    string
}

// Source is the resolved configuration. It is read-only after Load.
type Source struct {
	k *koanf.Koanf
}

// Load reads the YAML file at path (or CONFIG_PATH, or ./config.yaml) if it
// exists, then the environment, which takes precedence.
func Load(path string) (*Source, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	explicit := path != ""
	if !explicit {
		path = defaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return &Source{k: k}, nil
}

// envTransform maps MATOMO_TRACK_USERNAMES to matomo.trackusernames, known
// server variables to their paths, and drops everything else.
func envTransform(key string) string {
	key = strings.ToLower(key)
	for _, ns := range []string{currentNamespace, legacyNamespace} {
		if rest, ok := strings.CutPrefix(key, ns+"_"); ok {
			return ns + "." + strings.ReplaceAll(rest, "_", "")
		}
	}
	return serverEnv[key]
}

// Resolve looks up a Matomo setting by name (e.g. "IDSite"), trying the current
// namespace first and the legacy one second. Keys match case-insensitively, and
// a null or blank value counts as unset.
func (s *Source) Resolve(name string) (any, bool) {
	key := strings.ToLower(name)
	for _, ns := range []string{currentNamespace, legacyNamespace} {
		if v, ok := s.lookup(ns + "." + key); ok && !blank(v) {
			return v, true
		}
	}
	return nil, false
}

func (s *Source) lookup(path string) (any, bool) {
	if s.k.Exists(path) {
		return s.k.Get(path), true
	}
	for _, k := range s.k.Keys() {
		if strings.EqualFold(k, path) {
			return s.k.Get(k), true
		}
	}
	return nil, false
}

func blank(v any) bool {
	switch b := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(b) == ""
	}
	return false
}

func (s *Source) resolveString(name string) string {
	v, ok := s.Resolve(name)
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

func (s *Source) resolveBool(name string) bool {
	v, ok := s.Resolve(name)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	case string:
		return parseBool(b)
	default:
		return false
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes":
		return true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

// SiteConfig builds the tracking configuration. Missing IDSite or URL are left
// empty; the tracking builder treats that as unconfigured.
func (s *Source) SiteConfig() tracking.SiteConfig {
	cfg := tracking.SiteConfig{
		SiteID:         strings.TrimSpace(s.resolveString("IDSite")),
		Host:           strings.TrimSpace(s.resolveString("URL")),
		Protocol:       tracking.Protocol(strings.ToLower(strings.TrimSpace(s.resolveString("Protocol")))),
		Endpoint:       strings.TrimSpace(s.resolveString("Endpoint")),
		IgnoreBots:     s.resolveBool("IgnoreBots"),
		UsePageTitle:   s.resolveBool("UsePageTitle"),
		ActionName:     s.resolveString("ActionName"),
		TrackUsernames: s.resolveBool("TrackUsernames"),
		Mode:           tracking.Mode(strings.ToLower(strings.TrimSpace(s.resolveString("Mode")))),
	}

	if !utils.IsValidProtocol(string(cfg.Protocol)) {
		cfg.Protocol = tracking.ProtocolAuto
	}
	if cfg.Mode != tracking.ModeRelay {
		cfg.Mode = tracking.ModeBeacon
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	cfg.Endpoint = strings.TrimLeft(cfg.Endpoint, "/")
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	return cfg
}

// Server returns the HTTP service settings with defaults applied.
func (s *Source) Server() Server {
	srv := Server{
		Port:         s.k.String("server.port"),
		GinMode:      s.k.String("server.gin_mode"),
		FEOrigin:     s.k.String("server.fe_origin"),
		JWTSecret:    s.k.String("server.jwt_secret_key"),
		RelayTimeout: 5 * time.Second,
		LogLevel:     s.k.String("log.level"),
		LogFormat:    s.k.String("log.format"),
	}
	if srv.Port == "" {
		srv.Port = "8080"
	}
	if d, err := time.ParseDuration(s.k.String("server.relay_timeout")); err == nil && d > 0 {
		srv.RelayTimeout = d
	}
	return srv
}
