package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hooksync/internal/types"
)

func TestVersionCachePepVersion(t *testing.T) {
	cache := newVersionCache()

	v1, ok := cache.pepVersion("1.2.3")
	assert.True(t, ok)

	// Second call should hit cache
	v2, ok := cache.pepVersion("1.2.3")
	assert.True(t, ok)
	assert.Equal(t, v1, v2)
}

func TestVersionCachePepVersionInvalid(t *testing.T) {
	cache := newVersionCache()
	_, ok := cache.pepVersion("not-a-pep440!!!")
	assert.False(t, ok)
	assert.True(t, cache.invalid["not-a-pep440!!!"])
}

func TestVersionCacheEqual(t *testing.T) {
	cache := newVersionCache()
	assert.True(t, cache.equal("1.2", "1.2.0"))
	assert.True(t, cache.equal("1.0.0", "1.0.0"))
	assert.False(t, cache.equal("1.0.0", "1.0.1"))
	assert.True(t, cache.equal("weird!!", "weird!!"))
	assert.False(t, cache.equal("weird!!", "1.0"))
}

func TestIsExactPin(t *testing.T) {
	tests := []struct {
		name     string
		clauses  []types.Constraint
		version  string
		expected bool
	}{
		{
			name:     "same version",
			clauses:  []types.Constraint{{Op: types.ConstraintOpEq, Version: "2.31.0"}},
			version:  "2.31.0",
			expected: true,
		},
		{
			name:     "equivalent version",
			clauses:  []types.Constraint{{Op: types.ConstraintOpEq, Version: "1.2"}},
			version:  "1.2.0",
			expected: true,
		},
		{
			name:     "older version",
			clauses:  []types.Constraint{{Op: types.ConstraintOpEq, Version: "2.30.0"}},
			version:  "2.31.0",
			expected: false,
		},
		{
			name:     "wildcard",
			clauses:  []types.Constraint{{Op: types.ConstraintOpEq, Version: "1.2.*"}},
			version:  "1.2.0",
			expected: false,
		},
		{
			name:     "lower bound",
			clauses:  []types.Constraint{{Op: types.ConstraintOpGte, Version: "1.0"}},
			version:  "1.0",
			expected: false,
		},
		{
			name:     "arbitrary equality",
			clauses:  []types.Constraint{{Op: types.ConstraintOpArbitrary, Version: "1.0"}},
			version:  "1.0",
			expected: true,
		},
		{
			name: "multiple clauses",
			clauses: []types.Constraint{
				{Op: types.ConstraintOpEq, Version: "1.0"},
				{Op: types.ConstraintOpGte, Version: "1.0"},
			},
			version:  "1.0",
			expected: false,
		},
		{
			name:     "unconstrained",
			clauses:  nil,
			version:  "1.0",
			expected: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newVersionCache()
			assert.Equal(t, tt.expected, cache.isExactPin(tt.clauses, tt.version))
		})
	}
}
