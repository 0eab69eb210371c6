package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRelativeTime(t *testing.T) {
	require := require.New(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.Equal("now", relativeTime(now, now))
	require.Equal("now", relativeTime(now, now.Add(-30*time.Second)))

	label := relativeTime(now, now.Add(-5*time.Minute))
	require.True(strings.HasSuffix(label, " ago"), label)
	require.Contains(label, "5")
}

func TestFitString(t *testing.T) {
	require := require.New(t)
	require.Equal("abc  ", fitString("abc", 5))
	require.Equal("ab…", fitString("abcdef", 3))
	require.Equal("", fitString("abc", 0))
}
