package core

import (
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"

	"hooksync/internal/types"
)

// versionCache memoizes parsed PEP 440 versions so that the same lockfile
// version is parsed once per run no matter how many hooks reference it.
type versionCache struct {
	pep     map[string]pep440.Version
	invalid map[string]bool
}

func newVersionCache() *versionCache {
	return &versionCache{
		pep:     map[string]pep440.Version{},
		invalid: map[string]bool{},
	}
}

// pepVersion returns a parsed PEP 440 version, caching both successes and
// failures.
func (c *versionCache) pepVersion(value string) (pep440.Version, bool) {
	if parsed, ok := c.pep[value]; ok {
		return parsed, true
	}
	if c.invalid[value] {
		return pep440.Version{}, false
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		c.invalid[value] = true
		return pep440.Version{}, false
	}
	c.pep[value] = parsed
	return parsed, true
}

// equal compares two versions under PEP 440 semantics, falling back to
// exact string comparison when either side is not a PEP 440 version.
func (c *versionCache) equal(a string, b string) bool {
	v1, ok1 := c.pepVersion(a)
	v2, ok2 := c.pepVersion(b)
	if !ok1 || !ok2 {
		return a == b
	}
	return v1.Compare(v2) == 0
}

// isExactPin reports whether clauses already pin exactly version: a single
// "==" clause without wildcard whose version equals version, or a single
// "===" clause with the identical string.
func (c *versionCache) isExactPin(clauses []types.Constraint, version string) bool {
	if len(clauses) != 1 {
		return false
	}
	clause := clauses[0]
	switch clause.Op {
	case types.ConstraintOpArbitrary:
		return clause.Version == version
	case types.ConstraintOpEq:
		if strings.HasSuffix(clause.Version, ".*") {
			return false
		}
		return c.equal(clause.Version, version)
	default:
		return false
	}
}
