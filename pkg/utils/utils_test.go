package utils

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Levels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.WarnLevel, NewLogger("warn").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("verbose").GetLevel())
}

func TestHashKey(t *testing.T) {
	a := HashKey("idx", "model", "5", "hello")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashKey("idx", "model", "5", "hello"))
	assert.NotEqual(t, a, HashKey("idx", "model", "5", "hello!"))
	assert.NotEqual(t, HashKey("ab", "c"), HashKey("a", "bc"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 100))
	assert.Equal(t, "héll", Truncate("héllo", 4))
}
