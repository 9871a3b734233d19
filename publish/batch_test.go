package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

func memberNames(members []Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name     string
		members  []Member
		expected []string
	}{
		{
			name: "dependencies before dependents",
			members: []Member{
				{Name: "cli", Dependencies: []string{"core", "proto"}},
				{Name: "core", Dependencies: []string{"proto"}},
				{Name: "proto"},
			},
			expected: []string{"proto", "core", "cli"},
		},
		{
			name: "tie broken by dependency count",
			members: []Member{
				{Name: "heavy", Dependencies: []string{"ext-a", "ext-b", "ext-c"}},
				{Name: "light", Dependencies: []string{"ext-a"}},
			},
			expected: []string{"light", "heavy"},
		},
		{
			name: "equal counts keep declaration order",
			members: []Member{
				{Name: "alpha"},
				{Name: "beta"},
				{Name: "gamma"},
			},
			expected: []string{"alpha", "beta", "gamma"},
		},
		{
			name: "external dependencies ignored for ordering",
			members: []Member{
				{Name: "app", Dependencies: []string{"lib", "serde", "tokio"}},
				{Name: "lib", Dependencies: []string{"serde"}},
			},
			expected: []string{"lib", "app"},
		},
		{
			name: "diamond",
			members: []Member{
				{Name: "top", Dependencies: []string{"left", "right"}},
				{Name: "left", Dependencies: []string{"base"}},
				{Name: "right", Dependencies: []string{"base"}},
				{Name: "base"},
			},
			expected: []string{"base", "left", "right", "top"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ordered, err := Order(tt.members)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, memberNames(ordered))
		})
	}
}

func TestOrderCycle(t *testing.T) {
	_, err := Order([]Member{
		{Name: "a", Dependencies: []string{"b"}},
		{Name: "b", Dependencies: []string{"a"}},
		{Name: "standalone"},
	})

	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}
