package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/yaml"

	"github.com/redpwn/rcsync/pkg/kinds"
	"github.com/redpwn/rcsync/pkg/ksync"
)

const (
	RcsyncConfigKind       = "Config"
	RcsyncConfigApiVersion = "rcsync.dev/v1"
)

type Config struct {
	metav1.TypeMeta `json:",inline"`

	// ManagedBy holds the label that marks the namespaces owned by rcsync.
	ManagedBy *ManagedBy `json:"managedBy,omitempty"`

	// Kinds holds the custom kinds reconciled after the default catalog.
	Kinds []kinds.Entry `json:"kinds,omitempty"`

	// Concurrency sets how many namespaces, or kinds inside namespaces, are reconciled in parallel.
	Concurrency int `json:"concurrency,omitempty"`

	// FailFast stops the reconciliation at the first failure.
	FailFast bool `json:"failFast,omitempty"`

	// FieldManager sets the field manager for the reconciled objects.
	FieldManager string `json:"fieldManager,omitempty"`
}

type ManagedBy struct {
	// Key is the label name.
	Key string `json:"key"`

	// Value is the label value.
	Value string `json:"value"`
}

// NewConfig returns a config with the default marker and catalog.
func NewConfig() *Config {
	return &Config{
		TypeMeta: metav1.TypeMeta{
			Kind:       RcsyncConfigKind,
			APIVersion: RcsyncConfigApiVersion,
		},
		ManagedBy:    defaultManagedBy(),
		Kinds:        []kinds.Entry{},
		Concurrency:  1,
		FieldManager: ksync.DefaultFieldManager,
	}
}

func defaultManagedBy() *ManagedBy {
	return &ManagedBy{
		Key:   ksync.DefaultManagedByKey,
		Value: ksync.DefaultManagedByValue,
	}
}

// Registry returns the default catalog followed by the configured kinds.
func (c *Config) Registry() (*kinds.Registry, error) {
	return kinds.Default().With(c.Kinds...)
}

// SyncOptions returns the reconciliation options derived from the config.
func (c *Config) SyncOptions() ksync.Options {
	opts := ksync.DefaultOptions()
	opts.ManagedBy = labels.Set{c.ManagedBy.Key: c.ManagedBy.Value}
	opts.FieldManager = c.FieldManager
	opts.Concurrency = c.Concurrency
	opts.FailFast = c.FailFast
	return opts
}

// DefaultConfigPath returns '$HOME/.rcsync/config'
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".rcsync/config"), nil
}

// Read loads the config from the specified path,
// if the config file is not found, a default is returned.
func Read(configPath string) (*Config, error) {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("$HOME dir can't be determined, error: %w", err)
		}
		configPath = p
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return NewConfig(), nil
	}

	cfgData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(cfgData, cfg); err != nil {
		return nil, err
	}

	if cfg.ManagedBy == nil {
		cfg.ManagedBy = defaultManagedBy()
	}

	if cfg.ManagedBy.Key == "" || cfg.ManagedBy.Value == "" {
		return nil, fmt.Errorf("the managed-by label key and value can't be empty")
	}

	if cfg.FieldManager == "" {
		cfg.FieldManager = ksync.DefaultFieldManager
	}

	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	if _, err := cfg.Registry(); err != nil {
		return nil, fmt.Errorf("invalid kinds, error: %w", err)
	}

	return cfg, nil
}

// Write saves the config at the given path, if no path is specified
// it will create or override '$HOME/.rcsync/config'.
func (c *Config) Write(configPath string) error {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	if err := os.MkdirAll(filepath.Dir(configPath), os.FileMode(0755)); err != nil {
		return err
	}

	cfgData, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, cfgData, os.FileMode(0666)); err != nil {
		return err
	}

	return nil
}
