package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/thgtheme/themekit/core/infra/executil"
)

// SevenZip drives the external 7-Zip binary, the decompression tool the
// original packaging scripts require. It operates on host paths only.
type SevenZip struct {
	Tool string
}

// NewSevenZip returns a codec invoking the given tool path or name.
func NewSevenZip(tool string) *SevenZip {
	return &SevenZip{Tool: tool}
}

// preflight resolves the tool before any archive operation; its absence is
// a fatal precondition, not a mid-pipeline failure.
func (s *SevenZip) preflight() (string, error) {
	tool := s.Tool
	if tool == "" {
		tool = "7z"
	}
	path, err := executil.LookTool(tool)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingTool, tool)
	}
	return path, nil
}

// Preflight reports whether the external tool is invocable.
func (s *SevenZip) Preflight() error {
	_, err := s.preflight()
	return err
}

// Extract unpacks archivePath into destDir with overwrite enabled.
func (s *SevenZip) Extract(ctx context.Context, archivePath, destDir string) error {
	tool, err := s.preflight()
	if err != nil {
		return err
	}
	res, err := executil.Run(ctx, "", tool, "x", archivePath, "-o"+destDir, "-y")
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrExtractionFailed, archivePath, toolDetail(res, err))
	}
	return nil
}

// Pack rebuilds archivePath from every entry under srcDir. The tool runs
// inside srcDir so entry names come out relative; callers must have
// removed any pre-existing archive, otherwise 7-Zip updates it in place.
func (s *SevenZip) Pack(ctx context.Context, srcDir, archivePath string) error {
	tool, err := s.preflight()
	if err != nil {
		return err
	}
	// The tool runs with srcDir as cwd; the archive path must not
	// resolve relative to it.
	absArchive, err := filepath.Abs(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPackFailed, archivePath, err)
	}
	res, err := executil.Run(ctx, srcDir, tool, "a", "-tzip", "-y", absArchive, "*")
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrPackFailed, archivePath, toolDetail(res, err))
	}
	return nil
}

// List parses the tool's technical listing into sorted file entries.
func (s *SevenZip) List(ctx context.Context, archivePath string) ([]string, error) {
	tool, err := s.preflight()
	if err != nil {
		return nil, err
	}
	res, err := executil.Run(ctx, "", tool, "l", "-ba", "-slt", archivePath)
	if err != nil {
		return nil, fmt.Errorf("list %s: %s", archivePath, toolDetail(res, err))
	}
	return parseTechnicalListing(res.Stdout), nil
}

// parseTechnicalListing reads `-slt` output: blank-line separated blocks
// of `Key = Value` pairs, one block per entry.
func parseTechnicalListing(out string) []string {
	var (
		entries []string
		current string
		isDir   bool
	)
	flush := func() {
		if current != "" && !isDir {
			entries = append(entries, strings.ReplaceAll(current, `\`, "/"))
		}
		current, isDir = "", false
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case strings.HasPrefix(line, "Path = "):
			current = strings.TrimPrefix(line, "Path = ")
		case line == "Folder = +":
			isDir = true
		case strings.HasPrefix(line, "Attributes = D"):
			isDir = true
		}
	}
	flush()
	sort.Strings(entries)
	return entries
}

func toolDetail(res executil.Result, err error) string {
	detail := executil.Tail(res.Stderr, 4)
	if detail == "" {
		detail = executil.Tail(res.Stdout, 4)
	}
	if detail == "" {
		return err.Error()
	}
	return detail
}
