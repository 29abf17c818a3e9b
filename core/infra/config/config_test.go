package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LiveArchive == "" {
		t.Fatalf("expected default live archive")
	}
	if cfg.StagingDir != "build/staging" {
		t.Fatalf("unexpected staging dir %q", cfg.StagingDir)
	}
	if cfg.OutputArchive != "build/library.zip" {
		t.Fatalf("unexpected output archive %q", cfg.OutputArchive)
	}
	if cfg.Tool.Codec != CodecSevenZip {
		t.Fatalf("unexpected codec %q", cfg.Tool.Codec)
	}
	if !cfg.Launch.Enabled || cfg.Launch.Command == "" {
		t.Fatalf("expected launch enabled with a default command")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "themekit.yaml")
	doc := `live_archive: /opt/thg/library.zip
backup_path: /var/backups/library.zip
output_archive: /tmp/out/library.zip
sentinels:
  - mercurial/node.pyc
tool:
  seven_zip: /usr/bin/7z
  codec: zip
launch:
  enabled: false
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LiveArchive != "/opt/thg/library.zip" {
		t.Fatalf("unexpected live archive %q", cfg.LiveArchive)
	}
	if cfg.InstallTarget != "/opt/thg/library.zip" {
		t.Fatalf("install target should default to the live archive, got %q", cfg.InstallTarget)
	}
	if cfg.StagingDir != "build/staging" {
		t.Fatalf("unset fields must keep defaults, got %q", cfg.StagingDir)
	}
	if cfg.Tool.Codec != CodecZip {
		t.Fatalf("unexpected codec %q", cfg.Tool.Codec)
	}
	if len(cfg.Sentinels) != 1 || cfg.Sentinels[0] != "mercurial/node.pyc" {
		t.Fatalf("unexpected sentinels %#v", cfg.Sentinels)
	}
	if cfg.Launch.Enabled {
		t.Fatalf("launch should be disabled")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("archive: /x/library.zip\n"))
	if err == nil || !strings.Contains(err.Error(), "validate config") {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

func TestParseRejectsBadCodec(t *testing.T) {
	_, err := Parse([]byte("tool:\n  codec: rar\n"))
	if err == nil {
		t.Fatalf("expected codec rejection")
	}
}

func TestParseRejectsOutputOverLive(t *testing.T) {
	doc := `live_archive: /opt/thg/library.zip
output_archive: /opt/thg/library.zip
`
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "output_archive") {
		t.Fatalf("expected output/live clash rejection, got %v", err)
	}
}

func TestParseLaunchNeedsCommand(t *testing.T) {
	doc := `launch:
  enabled: true
  command: ""
`
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatalf("expected launch validation error")
	}
}
