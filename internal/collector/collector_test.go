package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "main.go...", Truncate("main.go - pomoclock - Visual Studio Code", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "über...", Truncate("überlange Fenster", 7))
}
