package session

import (
	"fmt"
	"regexp"
	"strings"
)

// Identifier limits.
const (
	MaxChamberLength = 32
	MaxVersionLength = 16
	MaxNameLength    = 64
	// MaxNamesPerRequest caps how many indices one read request may fan out to.
	MaxNamesPerRequest = 16
)

var (
	chamberRegex = regexp.MustCompile(`^[a-z0-9_-]+$`)
	versionRegex = regexp.MustCompile(`^[a-z0-9-]+$`)
	nameRegex    = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// Session identifies one chamber sitting, e.g. lok_sabha + 17.
// Its Name is the search index name shared by every record of that sitting.
type Session struct {
	chamber string
	version string
}

// New validates and creates a Session. Input is trimmed and lower-cased.
func New(chamber, version string) (Session, error) {
	chamber = strings.ToLower(strings.TrimSpace(chamber))
	version = strings.ToLower(strings.TrimSpace(version))

	if chamber == "" {
		return Session{}, fmt.Errorf("chamber is required")
	}
	if len(chamber) > MaxChamberLength {
		return Session{}, fmt.Errorf("chamber too long (max %d)", MaxChamberLength)
	}
	if !chamberRegex.MatchString(chamber) {
		return Session{}, fmt.Errorf("chamber must contain only a-z, 0-9, '_' and '-'")
	}
	if version == "" {
		return Session{}, fmt.Errorf("version is required")
	}
	if len(version) > MaxVersionLength {
		return Session{}, fmt.Errorf("version too long (max %d)", MaxVersionLength)
	}
	if !versionRegex.MatchString(version) {
		return Session{}, fmt.Errorf("version must contain only a-z, 0-9 and '-'")
	}

	return Session{chamber: chamber, version: version}, nil
}

// Chamber returns the chamber identifier.
func (s Session) Chamber() string { return s.chamber }

// Version returns the sitting identifier.
func (s Session) Version() string { return s.version }

// Name returns the index name, chamber_version.
func (s Session) Name() string { return s.chamber + "_" + s.version }

// ValidateName checks an index name received from a client.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("index name is required")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("index name too long (max %d)", MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("index name %q must contain only a-z, 0-9, '_' and '-'", name)
	}
	return nil
}

// ParseNames splits a comma-delimited index list, trims and de-duplicates it,
// and validates every entry. Order of first appearance is kept.
func ParseNames(csv string) ([]string, error) {
	parts := strings.Split(csv, ",")
	names := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for _, p := range parts {
		name := strings.ToLower(strings.TrimSpace(p))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("at least one index is required")
	}
	if len(names) > MaxNamesPerRequest {
		return nil, fmt.Errorf("too many indices (max %d)", MaxNamesPerRequest)
	}
	return names, nil
}
