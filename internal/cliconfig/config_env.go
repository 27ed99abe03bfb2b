package cliconfig

import "os"

// ApplyEnvConfig applies KTLX_* environment variables to the Config struct.
// Environment values override the file config but lose to explicit flags
// (tracked by the changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("format", os.Getenv("KTLX_FORMAT"), &cfg.Format)
	if err := s.setIntFromString("cached-segments", os.Getenv("KTLX_CACHED_SEGMENTS"), &cfg.CachedSegments); err != nil {
		return err
	}
	if err := s.setIntFromString("workers", os.Getenv("KTLX_WORKERS"), &cfg.Workers); err != nil {
		return err
	}
	return s.setBoolFromString("verbose", os.Getenv("KTLX_VERBOSE"), &cfg.Verbose)
}
