package instrument

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// versionSatisfied reports whether an installed version meets a minimum.
// Version strings may carry "v" or "go" prefixes ("v1.2.3", "go1.25.0").
// An empty minimum always passes; an unparseable installed version fails
// closed so an unknown build is never instrumented.
func versionSatisfied(installed, minimum string) (bool, error) {
	if minimum == "" {
		return true, nil
	}

	floor, err := semver.NewVersion(normalizeVersion(minimum))
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %q: %w", minimum, err)
	}

	have, err := semver.NewVersion(normalizeVersion(installed))
	if err != nil {
		return false, fmt.Errorf("invalid installed version %q: %w", installed, err)
	}

	return !have.LessThan(floor), nil
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "go")
	v = strings.TrimPrefix(v, "v")
	// Strip pseudo-version and build metadata noise like "+incompatible".
	if i := strings.IndexByte(v, '+'); i >= 0 {
		v = v[:i]
	}
	return v
}
