package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCounter int

func (c fakeCounter) Len() int { return int(c) }

func TestCanAddObject(t *testing.T) {
	l := &Limits{MaxObjects: 2}
	assert.True(t, l.CanAddObject(fakeCounter(0)))
	assert.True(t, l.CanAddObject(fakeCounter(1)))
	assert.False(t, l.CanAddObject(fakeCounter(2)))
}

func TestValidateMessageSize(t *testing.T) {
	l := &Limits{MaxMessageSize: 10}
	assert.True(t, l.ValidateMessageSize(10))
	assert.False(t, l.ValidateMessageSize(11))
}

func TestValidateObjectComplexityDepth(t *testing.T) {
	l := &Limits{MaxObjectDepth: 2, MaxObjectElements: 100}

	shallow := map[string]any{"a": map[string]any{"b": 1}}
	assert.NoError(t, l.ValidateObjectComplexity(shallow))

	deep := map[string]any{"a": map[string]any{"b": map[string]any{"c": map[string]any{"d": 1}}}}
	assert.Error(t, l.ValidateObjectComplexity(deep))
}

func TestValidateObjectComplexityKeys(t *testing.T) {
	l := &Limits{MaxObjectDepth: 10, MaxObjectElements: 3}

	small := map[string]any{"a": 1, "b": 2}
	assert.NoError(t, l.ValidateObjectComplexity(small))

	big := map[string]any{"a": 1, "b": 2, "c": 3, "d": 4}
	assert.Error(t, l.ValidateObjectComplexity(big))
}

func TestValidateObjectComplexityIgnoresArrayLength(t *testing.T) {
	l := &Limits{MaxObjectDepth: 10, MaxObjectElements: 5}

	points := make([]any, 1000)
	for i := range points {
		points[i] = float64(i)
	}
	// A long stroke is one key, however many points it has.
	assert.NoError(t, l.ValidateObjectComplexity(map[string]any{"points": points}))
}
