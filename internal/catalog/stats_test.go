package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatNamesOrder(t *testing.T) {
	got := StatNames(map[string]int{"speed": 1, "zeal": 2, "hp": 3, "accuracy": 4})
	require.Equal(t, []string{"hp", "speed", "accuracy", "zeal"}, got)
}

func TestStatBar(t *testing.T) {
	require.InDelta(t, 0.3, StatBar(45, 150), 1e-9)
	require.Equal(t, 1.0, StatBar(200, 150))
	require.Equal(t, 0.0, StatBar(-1, 150))
	require.Equal(t, 0.0, StatBar(10, 0))
}

func TestCompareStats(t *testing.T) {
	from := map[string]int{"hp": 45, "attack": 49}
	to := map[string]int{"hp": 60, "attack": 62, "speed": 60}

	got := CompareStats(from, to)
	require.Equal(t, []StatDelta{
		{Name: "hp", From: 45, To: 60, Delta: 15},
		{Name: "attack", From: 49, To: 62, Delta: 13},
		{Name: "speed", From: 0, To: 60, Delta: 60},
	}, got)
	require.Equal(t, 182, StatTotal(to))
}
