package cmsloader

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jessevdk/go-flags"

	"github.com/eringen/cmsloader/codeblocks"
)

// Config is the CMS connection configuration, bound from the environment.
type Config struct {
	GraphQLEndpoint     string `long:"webiny-graphql-endpoint" env:"WEBINY_GRAPHQL_ENDPOINT" description:"Webiny read API GraphQL endpoint"`
	APIToken            string `long:"webiny-api-token" env:"WEBINY_API_TOKEN" description:"Webiny API token"`
	FileManagerEndpoint string `long:"webiny-file-manager-endpoint" env:"WEBINY_FILE_MANAGER_ENDPOINT" description:"Webiny file manager GraphQL endpoint (derived from the read endpoint when empty)"`
}

var reReadAPI = regexp.MustCompile(`/cms/read/[^/]+$`)

// Validate reports missing endpoint or token.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.GraphQLEndpoint, validation.Required),
		validation.Field(&c.APIToken, validation.Required),
	)
}

// Resolve trims and validates c and fills in the file manager endpoint.
func (c Config) Resolve() (Config, error) {
	c.GraphQLEndpoint = strings.TrimSpace(c.GraphQLEndpoint)
	c.APIToken = strings.TrimSpace(c.APIToken)
	c.FileManagerEndpoint = strings.TrimSpace(c.FileManagerEndpoint)
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if c.FileManagerEndpoint == "" {
		c.FileManagerEndpoint = FileManagerEndpoint(c.GraphQLEndpoint)
	}
	return c, nil
}

// FileManagerEndpoint derives the file manager endpoint from a read API
// endpoint by replacing a trailing /cms/read/{env} with /graphql.
func FileManagerEndpoint(graphqlEndpoint string) string {
	return reReadAPI.ReplaceAllString(graphqlEndpoint, "/graphql")
}

// ResolveConfig reads the CMS configuration from the environment.
func ResolveConfig() (Config, error) {
	var cfg Config
	if err := parseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg.Resolve()
}

// SiteEnv describes the deployment environment of the consuming site.
type SiteEnv struct {
	IsProd  bool
	IsDev   bool
	BaseURL string
}

type rawSiteEnv struct {
	Prod    string `long:"prod" env:"PROD"`
	NodeEnv string `long:"node-env" env:"NODE_ENV"`
	BaseURL string `long:"base-url" env:"BASE_URL" default:"/"`
}

// ResolveSiteEnv reads PROD, NODE_ENV and BASE_URL.
func ResolveSiteEnv() (SiteEnv, error) {
	var raw rawSiteEnv
	if err := parseEnv(&raw); err != nil {
		return SiteEnv{}, err
	}
	prod := raw.Prod == "true" || raw.NodeEnv == "production"
	base := raw.BaseURL
	if base == "" {
		base = "/"
	}
	return SiteEnv{IsProd: prod, IsDev: !prod, BaseURL: base}, nil
}

// parseEnv fills the env-tagged fields of data without looking at os.Args.
func parseEnv(data interface{}) error {
	parser := flags.NewParser(data, flags.IgnoreUnknown)
	if _, err := parser.ParseArgs([]string{}); err != nil {
		return fmt.Errorf("cmsloader: parse environment: %w", err)
	}
	return nil
}

// Settings are the process-level options shared by the CLI commands.
type Settings struct {
	DatabasePath string `long:"database" env:"CMSLOADER_DATABASE" default:"data/content.db" description:"SQLite content store path"`
	ProbeImages  bool   `long:"probe-images" env:"CMSLOADER_PROBE_IMAGES" description:"Fetch image headers when the file manager has no dimensions"`
	Debug        bool   `long:"debug" env:"CMSLOADER_DEBUG" description:"Enable debug logging"`
}

// ServerConfig holds all configuration for the preview server.
type ServerConfig struct {
	Name        string `long:"site-name" env:"CMSLOADER_SITE_NAME" description:"Site name (default \"Blog\")"`
	URL         string `long:"site-url" env:"CMSLOADER_SITE_URL" description:"Canonical URL (default \"http://localhost:3000\")"`
	Description string `long:"site-description" env:"CMSLOADER_SITE_DESCRIPTION" description:"Site description for RSS and meta tags"`

	Addr string `long:"addr" env:"CMSLOADER_ADDR" description:"Listen address (default \":3000\")"`

	AdminPassword string `long:"admin-password" env:"CMSLOADER_ADMIN_PASSWORD" description:"Admin login password"`
	SessionSecret string `long:"session-secret" env:"CMSLOADER_SESSION_SECRET" description:"Session encryption secret"`
	CookieSecure  bool   `long:"cookie-secure" env:"CMSLOADER_COOKIE_SECURE" description:"Mark session cookies secure (HTTPS)"`

	CacheTTL time.Duration `long:"cache-ttl" env:"CMSLOADER_CACHE_TTL" description:"Entry cache TTL (default 5m)"`
}

func (c *ServerConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
}

// Validate reports missing admin credentials.
func (c ServerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AdminPassword, validation.Required),
		validation.Field(&c.SessionSecret, validation.Required, validation.Length(16, 0)),
	)
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the loader's logger (default: NewLogger(false)).
func WithLogger(l Logger) Option {
	return func(ld *Loader) {
		ld.logger = l
	}
}

// WithConfig pins the CMS configuration instead of reading the environment
// on every load.
func WithConfig(cfg Config) Option {
	return func(ld *Loader) {
		ld.resolve = cfg.Resolve
	}
}

// WithHTTPClient sets the HTTP client used for CMS and image requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(ld *Loader) {
		ld.httpClient = hc
	}
}

// WithClock sets the clock used when a post has no written date.
func WithClock(now func() time.Time) Option {
	return func(ld *Loader) {
		ld.now = now
	}
}

// WithImageProbe enables fetching image headers when the file manager has
// no dimensions for an image.
func WithImageProbe(enabled bool) Option {
	return func(ld *Loader) {
		ld.probe = enabled
	}
}

// WithCodeBlocks passes options to the code-block post-processor.
func WithCodeBlocks(opts ...codeblocks.Option) Option {
	return func(ld *Loader) {
		ld.fixerOpts = append(ld.fixerOpts, opts...)
	}
}
