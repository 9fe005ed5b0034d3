package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAnyFold(t *testing.T) {
	assert.True(t, HasAnyFold("Patchy light RAIN", "drizzle", "rain"))
	assert.True(t, HasAnyFold("Thundery outbreaks", "thunder"))
	assert.False(t, HasAnyFold("Sunny", "cloud", "rain"))
	assert.False(t, HasAnyFold("Sunny"))
	assert.False(t, HasAnyFold("Sunny", ""))
}
