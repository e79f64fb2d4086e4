package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errInvalidMode    = errors.New("invalid parse mode")
	errInvalidVersion = errors.New("invalid grammar version")
)

// Mode selects the parse context.
type Mode int

const (
	// ModeFilter parses a standalone filter expression.
	ModeFilter Mode = iota
	// ModePath parses a PATCH path expression, which additionally allows a
	// sub-attribute after a value path.
	ModePath
)

func (m Mode) String() string {
	switch m {
	case ModeFilter:
		return "filter"
	case ModePath:
		return "path"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "filter" or "path" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "filter", "":
		return ModeFilter, nil
	case "path":
		return ModePath, nil
	}
	return 0, fmt.Errorf("%w: %q", errInvalidMode, s)
}

// Version selects the grammar dialect.
type Version int

const (
	// V1 is the legacy grammar without value paths or schema URI prefixes.
	V1 Version = iota + 1
	// V2 is the current grammar.
	V2
)

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	}
	return fmt.Sprintf("Version(%d)", int(v))
}

// ParseVersion parses "1", "v1", "2" or "v2" (case-insensitive). Empty means V2.
func ParseVersion(s string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "v1":
		return V1, nil
	case "2", "v2", "":
		return V2, nil
	}
	return 0, fmt.Errorf("%w: %q", errInvalidVersion, s)
}

// Config holds the read-only settings of one parse.
type Config struct {
	Mode    Mode
	Version Version
	// MaxDepth caps the nesting of groups, negations and value paths.
	// Zero means unlimited.
	MaxDepth int
}

func (c Config) validate() error {
	if c.Mode != ModeFilter && c.Mode != ModePath {
		return fmt.Errorf("%w: %d", errInvalidMode, int(c.Mode))
	}
	if c.Version != V1 && c.Version != V2 {
		return fmt.Errorf("%w: %d", errInvalidVersion, int(c.Version))
	}
	return nil
}
