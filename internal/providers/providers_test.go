package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecFromString(t *testing.T) {
	assert.True(t, decFromString("1.25").Equal(dec("1.25")))
	assert.True(t, decFromString("").IsZero(), "empty input degrades to zero")
	assert.True(t, decFromString("garbage").IsZero(), "malformed input degrades to zero")
}

func TestParseRay(t *testing.T) {
	// 5% expressed at 1e27 scale.
	assert.True(t, parseRay("50000000000000000000000000").Equal(dec("0.05")))
	assert.True(t, parseRay("0").IsZero())
}

func TestParseWad(t *testing.T) {
	// 1.05 expressed at 1e18 scale.
	assert.True(t, parseWad("1050000000000000000").Equal(dec("1.05")))
	assert.True(t, parseWad("").IsZero())
}
