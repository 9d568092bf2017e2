package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMath_MinMax(t *testing.T) {
	assert.Equal(t, 2, Min(2, 3))
	assert.Equal(t, 2, Min(3, 2))
	assert.Equal(t, 3, Max(2, 3))
	assert.Equal(t, 3, Max(3, 2))
	assert.Equal(t, -0.5, Min(-0.5, 0.25))
}

func TestMath_Abs(t *testing.T) {
	assert.Equal(t, 4, Abs(-4))
	assert.Equal(t, 1.5, Abs(1.5))
	assert.Equal(t, int8(0), Abs(int8(0)))
}
