package overlapjoin

import (
	"testing"

	"go.llib.dev/testcase/assert"
)

func TestToConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := toConfig(nil)
		assert.False(t, c.Strict)
		assert.Equal(t, 16, c.WindowHint)
	})

	t.Run("options are applied", func(t *testing.T) {
		c := toConfig([]Option{Strict(), WindowHint(3)})
		assert.True(t, c.Strict)
		assert.Equal(t, 3, c.WindowHint)
	})

	t.Run("negative window hint keeps the default", func(t *testing.T) {
		c := toConfig([]Option{WindowHint(-5)})
		assert.Equal(t, 16, c.WindowHint)
	})

	t.Run("nil option is skipped", func(t *testing.T) {
		c := toConfig([]Option{nil, Strict()})
		assert.True(t, c.Strict)
	})
}

func TestNew_windowCapacity(t *testing.T) {
	s := makeSweep[int, int](fromSlice[int](nil), fromSlice[int](nil), []Option{WindowHint(7)})
	assert.Equal(t, 7, cap(s.window))
	assert.Equal(t, 7, cap(s.carry))
}
