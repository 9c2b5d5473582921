package cfg

import (
	"fmt"
	"net"

	"github.com/ilyakaznacheev/cleanenv"
)

// Env contains the settings that are read from environment variables.
type Env struct {
	GithubAPIToken string `env:"STEVE_GITHUB_TOKEN" env-description:"GitHub API token, overrides github_api_token"`
	MaxRetries     int    `env:"STEVE_MAX_RETRIES" env-default:"5" env-description:"max. number of attempts of a GitHub API call"`
	ListenIP       string `env:"STEVE_IP" env-default:"0.0.0.0" env-description:"http listen address, used when no listen address is configured"`
	ListenPort     string `env:"STEVE_PORT" env-default:"80" env-description:"http listen port, used when no listen address is configured"`
}

func LoadEnv() (*Env, error) {
	var result Env

	if err := cleanenv.ReadEnv(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// EnvUsage returns a description of the supported environment variables.
func EnvUsage() string {
	usage, err := cleanenv.GetDescription(&Env{}, nil)
	if err != nil {
		return ""
	}

	return usage
}

// ApplyEnv overwrites configuration settings with values from the
// environment.
func (c *Config) ApplyEnv(env *Env) error {
	if env.GithubAPIToken != "" {
		c.GithubAPIToken = env.GithubAPIToken
	}

	if env.MaxRetries < 1 {
		return fmt.Errorf("STEVE_MAX_RETRIES must be >=1, is: %d", env.MaxRetries)
	}
	c.MaxRetries = env.MaxRetries

	if c.HTTPListenAddr == "" && c.HTTPSListenAddr == "" {
		c.HTTPListenAddr = net.JoinHostPort(env.ListenIP, env.ListenPort)
	}

	return nil
}
