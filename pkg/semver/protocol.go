// Package semver checks the remote server's protocol version against the
// range this client supports.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:protocol"

var majorOnlyRegex = regexp.MustCompile(`^\d+$`)

// IsMajorOnly checks if a constraint is a bare major (e.g., "1").
func IsMajorOnly(constraint string) bool {
	return majorOnlyRegex.MatchString(constraint)
}

// ValidateConstraint reports whether constraint parses. Empty is valid and
// means "any version".
func ValidateConstraint(constraint string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" || IsMajorOnly(constraint) {
		return nil
	}
	if _, err := masterminds.NewConstraint(constraint); err != nil {
		return fmt.Errorf("%s - invalid protocol constraint %q: %w", logPrefix, constraint, err)
	}
	return nil
}

// CheckCompatible returns an error unless version satisfies constraint.
// A bare major constraint matches any version with that major.
func CheckCompatible(version, constraint string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return nil
	}

	sv, err := masterminds.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return fmt.Errorf("%s - server reported invalid version %q: %w", logPrefix, version, err)
	}

	if IsMajorOnly(constraint) {
		major, _ := strconv.ParseUint(constraint, 10, 64)
		if sv.Major() != major {
			return fmt.Errorf("%s - server protocol %s is not major %d", logPrefix, sv, major)
		}
		return nil
	}

	c, err := masterminds.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("%s - invalid protocol constraint %q: %w", logPrefix, constraint, err)
	}
	if ok, errs := c.Validate(sv); !ok {
		reason := "no match"
		if len(errs) > 0 {
			reason = errs[0].Error()
		}
		return fmt.Errorf("%s - server protocol %s does not satisfy %q: %s", logPrefix, sv, constraint, reason)
	}
	return nil
}
