package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfiguration_Validation(t *testing.T) {
	tests := []struct {
		name   string
		chains []Chain
		want   error
	}{
		{"no chains", nil, ErrEmptyConfiguration},
		{"empty chain", []Chain{{"a"}, {}}, ErrEmptyChain},
		{"blank id", []Chain{{"a", " "}}, ErrInvalidStageID},
		{"duplicate within chain", []Chain{{"a", "a"}}, ErrDuplicateStage},
		{"duplicate across chains", []Chain{{"a", "b"}, {"c", "b"}}, ErrDuplicateStage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfiguration("home", tt.chains...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), `"home"`)
		})
	}
}

func TestSequence_Empty(t *testing.T) {
	_, err := Sequence("content")
	assert.ErrorIs(t, err, ErrEmptyConfiguration)
	assert.Panics(t, func() { MustSequence("content") })
}

func TestConfiguration_SingleChain(t *testing.T) {
	cfg := MustSequence("home", "hero", "headline", "nav")

	assert.Equal(t, "home", cfg.Page())
	assert.Equal(t, 3, cfg.Len())
	assert.Equal(t, []StageID{"hero", "headline", "nav"}, cfg.Stages())
	assert.Equal(t, []StageID{"hero"}, cfg.Roots(DirectionEnter))
	assert.Equal(t, []StageID{"nav"}, cfg.Roots(DirectionExit))

	next, ok := cfg.Next("hero", DirectionEnter)
	assert.True(t, ok)
	assert.Equal(t, StageID("headline"), next)

	_, ok = cfg.Next("nav", DirectionEnter)
	assert.False(t, ok)

	next, ok = cfg.Next("nav", DirectionExit)
	assert.True(t, ok)
	assert.Equal(t, StageID("headline"), next)

	_, ok = cfg.Next("hero", DirectionExit)
	assert.False(t, ok)

	prev, ok := cfg.Previous("headline", DirectionEnter)
	assert.True(t, ok)
	assert.Equal(t, StageID("hero"), prev)

	_, ok = cfg.Next("missing", DirectionEnter)
	assert.False(t, ok)
	assert.False(t, cfg.Contains("missing"))
}

func TestConfiguration_IndependentChains(t *testing.T) {
	cfg, err := NewConfiguration("content", Chain{"header", "body"}, Chain{"aside"})
	require.NoError(t, err)

	assert.Equal(t, []StageID{"header", "body", "aside"}, cfg.Stages())
	assert.Equal(t, []StageID{"header", "aside"}, cfg.Roots(DirectionEnter))
	assert.Equal(t, []Chain{{"aside"}, {"body", "header"}}, cfg.Chains(DirectionExit))
	assert.Equal(t, []StageID{"aside", "body"}, cfg.Roots(DirectionExit))
}

func TestConfiguration_IsImmutable(t *testing.T) {
	chain := Chain{"a", "b"}
	cfg, err := NewConfiguration("home", chain)
	require.NoError(t, err)

	chain[0] = "mutated"
	cfg.Stages()[1] = "mutated"
	cfg.Chains(DirectionEnter)[0][0] = "mutated"

	assert.Equal(t, []StageID{"a", "b"}, cfg.Stages())
	assert.Equal(t, []StageID{"a"}, cfg.Roots(DirectionEnter))
}
