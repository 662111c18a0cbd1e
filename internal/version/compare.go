package version

import (
	"bytes"
	"os/exec"
	"strconv"
	"strings"
)

// Comparator orders two version strings.
// Compare returns a negative number if a < b, zero if a == b, and a
// positive number if a > b.
type Comparator interface {
	Compare(a, b string) int

	// Degraded reports whether this comparator is a reduced-accuracy
	// fallback. Callers should warn the user when it returns true.
	Degraded() bool
}

// VercmpComparator delegates ordering to pacman's vercmp binary, the
// authoritative implementation of package version semantics: an explicit
// epoch prefix (2:1.0) dominates everything else, dot/hyphen-delimited
// alphanumeric segments compare element-wise, and a tilde marks a
// pre-release that sorts below the same version without it.
type VercmpComparator struct {
	// Path is the vercmp binary path
	Path string
}

// Compare invokes vercmp and parses its integer result.
// If vercmp cannot be executed, the pair is reported equal; the binary was
// probed at startup, so this only happens if it disappears mid-run.
func (c *VercmpComparator) Compare(a, b string) int {
	cmd := exec.Command(c.Path, a, b)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return 0
	}

	n, err := strconv.Atoi(strings.TrimSpace(stdout.String()))
	if err != nil {
		return 0
	}

	return n
}

// Degraded returns false: vercmp is the authoritative comparator.
func (c *VercmpComparator) Degraded() bool {
	return false
}

// LexicalComparator is the fallback when vercmp is not installed. Plain
// string ordering is wrong for multi-digit numeric segments ("9" sorts
// above "10") and ignores epochs and tilde pre-release markers entirely.
// Degraded reports true so callers can flag the reduced accuracy.
type LexicalComparator struct{}

// Compare orders a and b as plain strings.
func (c *LexicalComparator) Compare(a, b string) int {
	return strings.Compare(a, b)
}

// Degraded returns true: lexical ordering is a last resort.
func (c *LexicalComparator) Degraded() bool {
	return true
}

// NewComparator selects the comparator for this run. It looks for vercmp
// on PATH exactly once; the choice is never revisited mid-run.
func NewComparator() Comparator {
	path, err := exec.LookPath("vercmp")
	if err != nil {
		return &LexicalComparator{}
	}
	return &VercmpComparator{Path: path}
}

var (
	_ Comparator = (*VercmpComparator)(nil)
	_ Comparator = (*LexicalComparator)(nil)
)
