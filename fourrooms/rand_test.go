package fourrooms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draws(s *Source, n int) []float64 {
	out := make([]float64, 0, 2*n)
	for i := 0; i < n; i++ {
		out = append(out, s.Float64(), float64(s.Intn(104)))
	}
	return out
}

func TestSourceDeterministic(t *testing.T) {
	assert.Equal(t, draws(NewSource(11), 100), draws(NewSource(11), 100))
	assert.NotEqual(t, draws(NewSource(11), 100), draws(NewSource(12), 100))
}

func TestSourceRestoreIndependentOfOriginal(t *testing.T) {
	s := NewSource(5)
	draws(s, 17)
	state := s.State()
	expected := draws(s, 50)

	// keep drawing on the original, the restored copy must not notice
	draws(s, 30)
	restored, err := RestoreSource(state)
	require.NoError(t, err)
	assert.Equal(t, expected, draws(restored, 50))

	other := NewSource(99)
	require.NoError(t, other.Restore(state))
	assert.Equal(t, expected, draws(other, 50))
}

func TestSourceRestoreInvalid(t *testing.T) {
	s := NewSource(1)
	before := s.State()
	err := s.Restore([]byte("junk"))
	assert.ErrorIs(t, err, ErrSnapshot)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, before, s.State())

	_, err = RestoreSource(nil)
	assert.ErrorIs(t, err, ErrSnapshot)
}

func TestSourceRanges(t *testing.T) {
	s := NewSource(3)
	for i := 0; i < 1000; i++ {
		f := s.Float64()
		assert.True(t, f >= 0 && f < 1)
		v := s.Intn(5)
		assert.True(t, v >= 0 && v < 5)
	}
}
