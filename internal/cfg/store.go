package cfg

import "go.uber.org/atomic"

// Store holds the active configuration.
// Configurations that were returned by Load are never modified, Replace
// swaps the whole configuration.
type Store struct {
	current atomic.Pointer[Config]
}

func NewStore(config *Config) *Store {
	var s Store
	s.current.Store(config)

	return &s
}

// Load returns the active configuration.
func (s *Store) Load() *Config {
	return s.current.Load()
}

// Repositories returns the repository configurations of the active
// configuration.
func (s *Store) Repositories() Repositories {
	return s.Load().Repos
}

// Replace makes config the active configuration.
func (s *Store) Replace(config *Config) {
	s.current.Store(config)
}
