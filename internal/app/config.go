package app

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"meshgateway/internal/mesh"
)

// Config contains runtime configuration derived from an optional YAML file
// and environment variables. Environment variables win.
type Config struct {
	Port      string
	Locale    language.Tag
	LogLevel  string
	LogFormat string
	Mesh      mesh.Config
}

// fileConfig is the YAML shape of Config.
type fileConfig struct {
	Port   string `yaml:"port"`
	Locale string `yaml:"locale"`
	Log    struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Mesh struct {
		BaseURL  string `yaml:"base_url"`
		Project  string `yaml:"project"`
		Resolver string `yaml:"resolver"`
		Auth     string `yaml:"auth"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Token    string `yaml:"token"`
		Timeout  string `yaml:"timeout"`
		PageSize int    `yaml:"page_size"`
	} `yaml:"mesh"`
}

const defaultBaseURL = "http://localhost:8080/api/v1/"

// LoadConfig reads MESH_GATEWAY_CONFIG (when set) and the environment.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(os.Getenv("MESH_GATEWAY_CONFIG"))
}

// LoadConfigFrom layers the environment over the YAML file at path. An empty
// path skips the file.
func LoadConfigFrom(path string) (Config, error) {
	var fc fileConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:      envOr("PORT", fc.Port, "3000"),
		LogLevel:  envOr("LOG_LEVEL", fc.Log.Level, "info"),
		LogFormat: envOr("LOG_FORMAT", fc.Log.Format, "text"),
	}

	locale, err := language.Parse(envOr("LOCALE", fc.Locale, "en"))
	if err != nil {
		return cfg, fmt.Errorf("parse locale: %w", err)
	}
	cfg.Locale = locale

	rawURL := envOr("MESH_BASE_URL", fc.Mesh.BaseURL, defaultBaseURL)
	baseURL, user, pass, err := normalizeBaseURL(rawURL)
	if err != nil {
		return cfg, err
	}

	authDefault := string(mesh.AuthNone)
	if user != "" {
		authDefault = string(mesh.AuthBasic)
	}
	auth, err := mesh.ParseAuthMode(envOr("MESH_AUTH", fc.Mesh.Auth, authDefault))
	if err != nil {
		return cfg, err
	}

	resolver := mesh.Resolver(strings.ToLower(envOr("MESH_RESOLVER", fc.Mesh.Resolver, string(mesh.ResolverGraphQL))))
	if resolver != mesh.ResolverGraphQL && resolver != mesh.ResolverREST {
		return cfg, fmt.Errorf("unknown resolver %q", resolver)
	}

	timeout, err := time.ParseDuration(envOr("MESH_TIMEOUT", fc.Mesh.Timeout, "0s"))
	if err != nil {
		return cfg, fmt.Errorf("parse MESH_TIMEOUT: %w", err)
	}
	if timeout < 0 {
		return cfg, fmt.Errorf("MESH_TIMEOUT must not be negative")
	}

	pageSize := fc.Mesh.PageSize
	if raw, ok := lookupEnv("MESH_PAGE_SIZE"); ok {
		pageSize, err = strconv.Atoi(raw)
		if err != nil {
			return cfg, fmt.Errorf("parse MESH_PAGE_SIZE: %w", err)
		}
	}
	if pageSize == 0 {
		pageSize = 100
	}
	if pageSize < 0 {
		return cfg, fmt.Errorf("MESH_PAGE_SIZE must be positive")
	}

	cfg.Mesh = mesh.Config{
		BaseURL:  baseURL,
		Project:  envOr("MESH_PROJECT", fc.Mesh.Project, "demo"),
		Resolver: resolver,
		Auth:     auth,
		Username: envOr("MESH_USERNAME", fc.Mesh.Username, user),
		Password: envOr("MESH_PASSWORD", fc.Mesh.Password, pass),
		Token:    envOr("MESH_TOKEN", fc.Mesh.Token, ""),
		Timeout:  timeout,
		PageSize: pageSize,
	}

	switch auth {
	case mesh.AuthBasic, mesh.AuthLogin:
		if cfg.Mesh.Username == "" {
			return cfg, fmt.Errorf("auth mode %s requires MESH_USERNAME or credentials in MESH_BASE_URL", auth)
		}
	case mesh.AuthCookie:
		if cfg.Mesh.Token == "" {
			return cfg, fmt.Errorf("auth mode cookie requires MESH_TOKEN")
		}
	}

	return cfg, nil
}

// normalizeBaseURL validates the API base, strips any user:pass@ and makes
// sure the path ends in a slash.
func normalizeBaseURL(input string) (base, user, pass string, err error) {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return "", "", "", fmt.Errorf("parse mesh url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", "", fmt.Errorf("unsupported mesh url scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return "", "", "", fmt.Errorf("missing host in mesh url")
	}

	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
		u.User = nil
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return u.String(), user, pass, nil
}

// envOr returns the environment value for key, then fileValue, then fallback.
func envOr(key, fileValue, fallback string) string {
	if value, ok := lookupEnv(key); ok {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return fallback
}

func lookupEnv(key string) (string, bool) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value, true
	}
	return "", false
}
