// Package pkgbuild reads and rewrites PKGBUILD version fields.
package pkgbuild

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoPKGBUILD is returned when a package directory has no PKGBUILD
	ErrNoPKGBUILD = errors.New("no PKGBUILD found")
	// ErrFieldNotFound is returned when no line assigns the requested key
	ErrFieldNotFound = errors.New("field not found in PKGBUILD")
)

// vcsSuffixes are package-name suffixes that mark a VCS build. Such
// packages track a moving revision, so their pkgver never drives an
// update decision.
var vcsSuffixes = []string{"-git", "-svn", "-hg", "-bzr", "-cvs", "-darcs", "-nightly"}

// Find locates the PKGBUILD for a package under root. The expected
// layout is one directory per package with the PKGBUILD at its top.
func Find(root, name string) (string, error) {
	path := filepath.Join(root, name, "PKGBUILD")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoPKGBUILD, path)
	}
	return path, nil
}

// ReadField returns the value of the first line assigning key, with
// surrounding single or double quotes stripped. PKGBUILDs are shell, so
// this is an approximation, but pkgver and pkgrel are assigned as plain
// literals in practice.
func ReadField(path, key string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	prefix := key + "="

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		value := strings.TrimPrefix(line, prefix)
		value = strings.Trim(value, `"'`)
		return value, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", fmt.Errorf("%w: %s", ErrFieldNotFound, key)
}

// IsVCS reports whether a package name follows a VCS-build naming
// convention.
func IsVCS(name string) bool {
	for _, suffix := range vcsSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
