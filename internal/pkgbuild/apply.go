package pkgbuild

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrBackupFailed is returned when the pre-rewrite backup cannot be
	// written
	ErrBackupFailed = errors.New("failed to back up PKGBUILD")
	// ErrRewriteFailed is returned when the version fields cannot be
	// rewritten in place
	ErrRewriteFailed = errors.New("failed to rewrite PKGBUILD")
	// ErrChecksumFailed is returned when the checksum refresh tool fails
	ErrChecksumFailed = errors.New("checksum refresh failed")
)

const backupTimeFormat = "20060102-150405"

var (
	pkgverLine = regexp.MustCompile(`(?m)^pkgver=.*$`)
	pkgrelLine = regexp.MustCompile(`(?m)^pkgrel=.*$`)
)

// Applier rewrites a PKGBUILD to a new upstream version and refreshes
// its source checksums.
type Applier struct {
	// SumsTool is the checksum refresh command, updpkgsums when empty.
	SumsTool string
}

// Apply sets pkgver to the given upstream version, resets pkgrel to 1,
// and runs the checksum tool in the package directory. A timestamped
// backup is written next to the PKGBUILD first. Hyphens in the version
// become underscores because pkgver may not contain the field separator
// used in built package names.
func (a *Applier) Apply(path, version string) error {
	original, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRewriteFailed, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRewriteFailed, err)
	}

	backup := path + ".bak." + time.Now().Format(backupTimeFormat)
	if err := os.WriteFile(backup, original, info.Mode()); err != nil {
		return fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}

	pkgver := strings.ReplaceAll(version, "-", "_")
	// The replacement string feeds a regexp expander where $ introduces a
	// group reference, so a literal $ must be doubled.
	replacement := "pkgver=" + strings.ReplaceAll(pkgver, "$", "$$")

	if !pkgverLine.Match(original) {
		return fmt.Errorf("%w: no pkgver assignment in %s", ErrRewriteFailed, path)
	}

	updated := pkgverLine.ReplaceAll(original, []byte(replacement))
	updated = pkgrelLine.ReplaceAll(updated, []byte("pkgrel=1"))

	if err := os.WriteFile(path, updated, info.Mode()); err != nil {
		return fmt.Errorf("%w: %v", ErrRewriteFailed, err)
	}

	return a.refreshSums(filepath.Dir(path))
}

// refreshSums runs the checksum tool in dir, folding its stderr into
// the returned error.
func (a *Applier) refreshSums(dir string) error {
	tool := a.SumsTool
	if tool == "" {
		tool = "updpkgsums"
	}

	cmd := exec.Command(tool)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: %s: %s", ErrChecksumFailed, tool, msg)
		}
		return fmt.Errorf("%w: %s: %v", ErrChecksumFailed, tool, err)
	}
	return nil
}
