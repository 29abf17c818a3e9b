package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

const (
	initConfigTemplate = `# themekit configuration. Unset keys fall back to the stock
# TortoiseHg layout for this platform.

# live_archive: C:\Program Files\TortoiseHg\library.zip
backup_path: backup/library.zip
staging_dir: build/staging
source_root: src
output_archive: build/library.zip

# patchset: patches.yaml

tool:
  # seven_zip: C:\Program Files\7-Zip\7z.exe
  codec: 7z

launch:
  enabled: true
  # command: C:\Program Files\TortoiseHg\thgw.exe
`

	initPatchSetTemplate = `# Files copied from source_root into the staging tree. Omitted targets
# default to the source path. Leave this file out to use the built-in
# theme patch list.
patches:
  - source: tortoisehg/hgqt/theme.py
  - source: tortoisehg/hgqt/qtlib.py
cache_schemes:
  - legacy
  - pep3147
`
)

func runInitCmd(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite existing files")
	if err := fs.Parse(args); err != nil {
		fail(err.Error())
	}
	if fs.NArg() < 1 {
		fail("project directory required")
	}
	target := fs.Arg(0)
	if err := scaffoldInit(target, *force); err != nil {
		fail(err.Error())
	}
	fmt.Printf("themekit project initialized at %s\n", target)
}

func scaffoldInit(target string, force bool) error {
	info, err := os.Stat(target)
	if err == nil && !info.IsDir() {
		return fmt.Errorf("not a directory: %s", target)
	}
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := ensureDir(target); err != nil {
		return err
	}
	if err := ensureDir(filepath.Join(target, "src")); err != nil {
		return err
	}

	readme := fmt.Sprintf(`# %s

Theme overlay workspace for a TortoiseHg installation.

## Put modified files under src/

Mirror the archive layout, e.g. src/tortoisehg/hgqt/theme.py.

## Stage and patch

~~~bash
themekit apply-overlay
~~~

## Rebuild the archive

~~~bash
themekit pack-archive
~~~

## Install and relaunch (elevated shell)

~~~bash
themekit install-and-run
~~~
`, filepath.Base(target))

	files := map[string]string{
		filepath.Join(target, "themekit.yaml"): initConfigTemplate,
		filepath.Join(target, "patches.yaml"):  initPatchSetTemplate,
		filepath.Join(target, "README.md"):     readme,
	}
	for path, content := range files {
		if err := writeScaffoldFile(path, content, force); err != nil {
			return err
		}
	}
	return nil
}

func ensureDir(path string) error {
	if path == "" {
		return fmt.Errorf("directory path required")
	}
	return os.MkdirAll(path, 0o750)
}

// writeScaffoldFile refuses to clobber existing files unless forced.
func writeScaffoldFile(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file exists: %s", path)
		} else if !os.IsNotExist(err) {
			return err
		}
	}
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
