package cfg

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	DefGithubWebhookEndpoint = "/listener/github"
	DefLogFormat             = "logfmt"
	DefLogTimeKey            = "time_iso8601"
	DefLogLevel              = "info"
	DefMaxParallelMutations  = 4
	DefCallTimeout           = 30 * time.Second
)

type Config struct {
	HTTPListenAddr            string       `toml:"http_server_listen_addr"`
	HTTPSListenAddr           string       `toml:"https_server_listen_addr"`
	HTTPSCertFile             string       `toml:"https_ssl_cert_file"`
	HTTPSKeyFile              string       `toml:"https_ssl_key_file"`
	HTTPGithubWebhookEndpoint string       `toml:"github_webhook_endpoint"`
	GithubWebHookSecret       string       `toml:"github_webhook_secret"`
	GithubAPIToken            string       `toml:"github_api_token"`
	APIRoot                   string       `toml:"api_root"`
	GraphQLAPIURL             string       `toml:"graphql_api_url"`
	SkipIssueLookup           bool         `toml:"skip_issue_lookup"`
	MaxParallelMutations      int          `toml:"max_parallel_mutations"`
	CallTimeout               string       `toml:"call_timeout"`
	PrometheusMetricsEndpoint string       `toml:"prometheus_metrics_endpoint"`
	LogFormat                 string       `toml:"log_format"`
	LogTimeKey                string       `toml:"log_time_key"`
	LogLevel                  string       `toml:"log_level"`
	Repos                     Repositories `toml:"repos"`

	// MaxRetries is the maximum number of attempts of an outbound GitHub
	// call. It is only read from the environment.
	MaxRetries int `toml:"-"`
}

// Load reads a TOML configuration, applies defaults and validates it.
func Load(reader io.Reader) (*Config, error) {
	var result Config

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	result.setDefaults()

	if err := result.Validate(); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Config) setDefaults() {
	if c.HTTPGithubWebhookEndpoint == "" {
		c.HTTPGithubWebhookEndpoint = DefGithubWebhookEndpoint
	}

	if c.LogFormat == "" {
		c.LogFormat = DefLogFormat
	}

	if c.LogTimeKey == "" {
		c.LogTimeKey = DefLogTimeKey
	}

	if c.LogLevel == "" {
		c.LogLevel = DefLogLevel
	}

	if c.MaxParallelMutations == 0 {
		c.MaxParallelMutations = DefMaxParallelMutations
	}

	if c.Repos == nil {
		c.Repos = Repositories{}
	}
}

// Validate returns an error if a setting has an invalid value.
func (c *Config) Validate() error {
	if c.APIRoot != "" {
		if err := validateAbsURL(c.APIRoot); err != nil {
			return fmt.Errorf("api_root: %w", err)
		}
	}

	if c.GraphQLAPIURL != "" {
		if err := validateAbsURL(c.GraphQLAPIURL); err != nil {
			return fmt.Errorf("graphql_api_url: %w", err)
		}
	}

	if c.MaxParallelMutations < 0 {
		return fmt.Errorf("max_parallel_mutations: must be >=0, is: %d", c.MaxParallelMutations)
	}

	if _, err := c.CallTimeoutDuration(); err != nil {
		return fmt.Errorf("call_timeout: %w", err)
	}

	if c.HTTPSListenAddr != "" && (c.HTTPSCertFile == "" || c.HTTPSKeyFile == "") {
		return errors.New("https_ssl_cert_file and https_ssl_key_file must be set when https_server_listen_addr is defined")
	}

	return c.Repos.Validate()
}

// CallTimeoutDuration returns the timeout for a single outbound call.
func (c *Config) CallTimeoutDuration() (time.Duration, error) {
	if c.CallTimeout == "" {
		return DefCallTimeout, nil
	}

	d, err := time.ParseDuration(c.CallTimeout)
	if err != nil {
		return 0, err
	}

	if d <= 0 {
		return 0, fmt.Errorf("must be positive, is: %s", d)
	}

	return d, nil
}

// GraphQLURL returns the URL of the GitHub GraphQL API.
// If it is not configured explicitly, it is derived from APIRoot.
// An empty string is returned for the public github.com API.
func (c *Config) GraphQLURL() string {
	if c.GraphQLAPIURL != "" {
		return c.GraphQLAPIURL
	}

	if c.APIRoot == "" {
		return ""
	}

	root := strings.TrimSuffix(c.APIRoot, "/")
	if strings.HasSuffix(root, "/api/v3") {
		// GitHub Enterprise Server
		return strings.TrimSuffix(root, "/v3") + "/graphql"
	}

	return root + "/graphql"
}

func validateAbsURL(in string) error {
	u, err := url.Parse(in)
	if err != nil {
		return err
	}

	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%q is not an absolute url", in)
	}

	return nil
}

func (c *Config) Marshal(writer io.Writer) error {
	return toml.NewEncoder(writer).Encode(c)
}
