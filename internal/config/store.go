package config

import (
	"errors"
	"io/fs"

	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/filelock"
)

// Store loads and saves the configuration file at a fixed path.
type Store struct {
	path string
}

// LoadResult describes what Store.Load produced.
type LoadResult struct {
	Config *Config
	// UsedDefaults is true when the file was missing or unusable.
	UsedDefaults bool
	// Created is true when a fresh default file was written.
	Created bool
	// Warnings are non-fatal findings such as unknown fields.
	Warnings []string
	// Fallback explains why defaults were used or why a fresh file could
	// not be written (ConfigUnreadable or ConfigUnwritable). Non-fatal.
	Fallback error
}

// NewStore creates a Store for the given config file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the config file. A missing file is replaced by a freshly
// written default config; an unreadable or invalid file falls back to
// defaults without touching it. The only fatal error is failing to
// serialize the default config.
func (s *Store) Load() (*LoadResult, error) {
	data, err := filelock.LockAndRead(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.createDefault()
	}
	if err != nil {
		return &LoadResult{
			Config:       Default(),
			UsedDefaults: true,
			Fallback:     cverrors.ConfigUnreadable(s.path, err),
		}, nil
	}

	cfg, warnings, err := Parse(data)
	if err != nil {
		return &LoadResult{
			Config:       Default(),
			UsedDefaults: true,
			Warnings:     warnings,
			Fallback:     cverrors.ConfigUnreadable(s.path, err),
		}, nil
	}

	return &LoadResult{Config: cfg, Warnings: warnings}, nil
}

func (s *Store) createDefault() (*LoadResult, error) {
	cfg := Default()
	data, err := Marshal(cfg)
	if err != nil {
		return nil, cverrors.Wrap(err, "failed to serialize default config")
	}

	result := &LoadResult{Config: cfg, UsedDefaults: true}
	if err := filelock.LockAndWrite(s.path, data); err != nil {
		result.Fallback = cverrors.ConfigUnwritable(s.path, err)
		return result, nil
	}
	result.Created = true
	return result, nil
}

// Save validates and writes cfg atomically under the config file lock.
func (s *Store) Save(cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return cverrors.Configf("refusing to save invalid config: %v", err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		return cverrors.Wrap(err, "failed to serialize config")
	}
	if err := filelock.LockAndWrite(s.path, data); err != nil {
		return cverrors.ConfigUnwritable(s.path, err)
	}
	return nil
}
