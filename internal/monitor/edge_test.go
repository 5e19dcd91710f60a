package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgeDetector_RisingOnly(t *testing.T) {
	var e EdgeDetector
	assert.Equal(t, Below, e.Level())

	tests := []struct {
		over   bool
		rising bool
		level  Level
	}{
		{false, false, Below},
		{true, true, Above},
		{true, false, Above},
		{false, false, Below},
		{false, false, Below},
		{true, true, Above},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.rising, e.Observe(tt.over), "observation %d", i)
		assert.Equal(t, tt.level, e.Level(), "observation %d", i)
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "below", Below.String())
	assert.Equal(t, "above", Above.String())
}
