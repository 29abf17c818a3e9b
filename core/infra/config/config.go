// Package config loads the themekit configuration file. A missing file
// yields the stock TortoiseHg layout so the common case needs no config
// at all.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// DefaultPath is consulted when no config path is given.
const DefaultPath = "themekit.yaml"

// Codec names accepted in Tool.Codec.
const (
	CodecSevenZip = "7z"
	CodecZip      = "zip"
)

// Tool selects the archiver used for extraction and packing.
type Tool struct {
	// SevenZip is the path of the external archiver binary.
	SevenZip string `yaml:"seven_zip,omitempty"`
	// Codec picks the archive backend, CodecSevenZip or CodecZip.
	Codec string `yaml:"codec,omitempty"`
}

// Launch describes the application started after a successful install.
type Launch struct {
	Enabled bool     `yaml:"enabled,omitempty"`
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// Config is the full themekit configuration.
type Config struct {
	// LiveArchive is the runtime archive inside the installation.
	LiveArchive string `yaml:"live_archive,omitempty"`
	// BackupPath is where the pristine copy of the live archive lives.
	BackupPath string `yaml:"backup_path,omitempty"`
	// StagingDir holds the extracted archive tree while it is patched.
	StagingDir string `yaml:"staging_dir,omitempty"`
	// SourceRoot is the overlay tree of replacement files.
	SourceRoot string `yaml:"source_root,omitempty"`
	// OutputArchive is where the rebuilt archive is written.
	OutputArchive string `yaml:"output_archive,omitempty"`
	// InstallTarget is the protected destination of the rebuilt archive.
	// Empty means install over LiveArchive.
	InstallTarget string `yaml:"install_target,omitempty"`
	// PatchSet is the path of the patch list file. Empty means the
	// built-in theme patch list.
	PatchSet string `yaml:"patchset,omitempty"`
	// Sentinels override the baseline sentinel entries.
	Sentinels []string `yaml:"sentinels,omitempty"`

	Tool   Tool   `yaml:"tool,omitempty"`
	Launch Launch `yaml:"launch,omitempty"`
}

// Default returns the stock layout for the running platform. Workspace
// paths are relative so a checkout can carry its own staging tree.
func Default() *Config {
	cfg := &Config{
		BackupPath:    "backup/library.zip",
		StagingDir:    "build/staging",
		SourceRoot:    "src",
		OutputArchive: "build/library.zip",
		Tool:          Tool{Codec: CodecSevenZip},
		Launch:        Launch{Enabled: true},
	}
	if runtime.GOOS == "windows" {
		cfg.LiveArchive = `C:\Program Files\TortoiseHg\library.zip`
		cfg.Tool.SevenZip = `C:\Program Files\7-Zip\7z.exe`
		cfg.Launch.Command = `C:\Program Files\TortoiseHg\thgw.exe`
		return cfg
	}
	cfg.LiveArchive = "/usr/lib/tortoisehg/library.zip"
	cfg.Tool.SevenZip = "7z"
	cfg.Launch.Command = "thg"
	return cfg
}

// Load reads the config at path, or the defaults when the file does not
// exist. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path) // #nosec G304 -- config path is operator-provided.
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates raw YAML config bytes. Fields absent from
// the document keep their default values.
func Parse(data []byte) (*Config, error) {
	if err := validateConfigSchema(data); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if cfg.InstallTarget == "" {
		cfg.InstallTarget = cfg.LiveArchive
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
