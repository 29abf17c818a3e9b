package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	kitschema "github.com/thgtheme/themekit/core/infra/schema"
)

func validateConfigSchema(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	schemaBytes, err := configSchemaFS.ReadFile(configSchemaFile)
	if err != nil {
		return fmt.Errorf("load config schema: %w", err)
	}
	var payload any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := kitschema.ValidateSchema("themekit-config", schemaBytes, payload); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.LiveArchive == "" {
		return fmt.Errorf("live_archive must be set")
	}
	if c.BackupPath == "" {
		return fmt.Errorf("backup_path must be set")
	}
	if c.StagingDir == "" {
		return fmt.Errorf("staging_dir must be set")
	}
	if c.SourceRoot == "" {
		return fmt.Errorf("source_root must be set")
	}
	if c.OutputArchive == "" {
		return fmt.Errorf("output_archive must be set")
	}
	// The rebuilt archive must land outside the installation. Writing it
	// straight over the live archive would skip the elevation gate.
	if c.OutputArchive == c.LiveArchive {
		return fmt.Errorf("output_archive must differ from live_archive")
	}
	switch c.Tool.Codec {
	case CodecSevenZip, CodecZip:
	default:
		return fmt.Errorf("tool.codec %q: must be %q or %q", c.Tool.Codec, CodecSevenZip, CodecZip)
	}
	if c.Tool.Codec == CodecSevenZip && c.Tool.SevenZip == "" {
		return fmt.Errorf("tool.seven_zip must be set when tool.codec is %q", CodecSevenZip)
	}
	if c.Launch.Enabled && c.Launch.Command == "" {
		return fmt.Errorf("launch.enabled requires launch.command")
	}
	return nil
}
