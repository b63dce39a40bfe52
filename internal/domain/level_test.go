package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSignalLevels(t *testing.T) {
	tests := []struct {
		name    string
		section string
		want    []int
	}{
		{
			name:    "numbered headings",
			section: "Signal No. 1 over Ilocos Norte. Signal No. 2 over Catanduanes.",
			want:    []int{1, 2},
		},
		{
			name:    "tcws shorthand",
			section: "TCWS #3 remains hoisted over Catanduanes",
			want:    []int{3},
		},
		{
			name:    "table cells",
			section: "1 | Northern Samar 2 | Catanduanes",
			want:    []int{1, 2},
		},
		{
			name:    "keyword markers",
			section: "Typhoon-force winds over Catanduanes. Storm-force winds over Camarines Norte.",
			want:    []int{2, 4},
		},
		{
			name:    "numeric and keyword mixed",
			section: "Signal No. 5 hoisted. Gale-force winds possible elsewhere.",
			want:    []int{1, 5},
		},
		{
			name:    "no markers",
			section: "Winds are expected to strengthen over the weekend.",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindSignalLevels(tt.section))
		})
	}
}

func TestSplitSignalSection_WindowsPerLevel(t *testing.T) {
	section := "Signal No. 1 Luzon: Ilocos Norte Signal No. 2 Luzon: Cagayan"

	windows := SplitSignalSection(section)

	require.Len(t, windows, 2)
	assert.Equal(t, "Luzon: Ilocos Norte", windows[1])
	assert.Equal(t, "Luzon: Cagayan", windows[2])
}

func TestSplitSignalSection_LastWindowRunsToEnd(t *testing.T) {
	section := "Signal No. 3 Catanduanes, Camarines Norte and the eastern portion of Quezon"

	windows := SplitSignalSection(section)

	require.Len(t, windows, 1)
	assert.Equal(t, "Catanduanes, Camarines Norte and the eastern portion of Quezon", windows[3])
}

func TestSplitSignalSection_TableLayout(t *testing.T) {
	section := "1 | Northern Samar, Eastern Samar 2 | Catanduanes"

	windows := SplitSignalSection(section)

	require.Len(t, windows, 2)
	assert.Equal(t, "Northern Samar, Eastern Samar", windows[1])
	assert.Equal(t, "Catanduanes", windows[2])
}

func TestSplitSignalSection_KeywordMarker(t *testing.T) {
	section := "Storm-force winds over Northern Samar and Eastern Samar"

	windows := SplitSignalSection(section)

	require.Len(t, windows, 1)
	assert.Equal(t, "winds over Northern Samar and Eastern Samar", windows[2])
}

func TestSplitSignalSection_FallsBackToHighestImpliedLevel(t *testing.T) {
	// No heading, table cell, or keyword marker: the whole section is
	// attributed to the highest level the prose implies.
	section := "The highest possible wind signal for this cyclone is no. 2 over the Bicol area."

	windows := SplitSignalSection(section)

	require.Len(t, windows, 1)
	assert.Equal(t, section, windows[2])
}

func TestSplitSignalSection_NoLevels(t *testing.T) {
	windows := SplitSignalSection("Winds will remain light over the archipelago.")
	assert.Empty(t, windows)
}

func TestSplitSignalSection_RepeatedMarkerKeepsFirst(t *testing.T) {
	section := "Signal No. 1 Ilocos Norte. Signal No. 1 reiterated for Apayao."

	windows := SplitSignalSection(section)

	require.Len(t, windows, 1)
	assert.Equal(t, "Ilocos Norte. Signal No. 1 reiterated for Apayao.", windows[1])
}

func TestIdentifyRainfallLevel(t *testing.T) {
	tests := []struct {
		name    string
		section string
		level   int
		ok      bool
	}{
		{
			name:    "intense rainfall",
			section: "Intense rainfall is forecast over Catanduanes through tomorrow.",
			level:   1,
			ok:      true,
		},
		{
			name:    "heavy rainfall",
			section: "Heavy rainfall over Northern Samar and Eastern Samar.",
			level:   2,
			ok:      true,
		},
		{
			name:    "light to moderate",
			section: "Light to moderate rains over the rest of the Bicol Region.",
			level:   3,
			ok:      true,
		},
		{
			name:    "millimetre band",
			section: "Forecast accumulations of >30 mm per hour.",
			level:   1,
			ok:      true,
		},
		{
			name:    "most severe wins",
			section: "Intense rainfall over coastal areas, heavy rainfall elsewhere.",
			level:   1,
			ok:      true,
		},
		{
			// "heavy rainfall" inside the phrase outranks the advisory
			// keyword, so mixed prose lands on level 2.
			name:    "heavy rainfall advisory",
			section: "A heavy rainfall advisory remains in effect.",
			level:   2,
			ok:      true,
		},
		{
			name:    "no hazard language",
			section: "Sunny skies over most of the country.",
			level:   0,
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := IdentifyRainfallLevel(tt.section)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.level, level)
		})
	}
}
