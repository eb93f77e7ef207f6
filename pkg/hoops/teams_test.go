package hoops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveTeamsFallback(t *testing.T) {
	SetAssetsPath(t.TempDir())

	teams := ActiveTeams()
	require.Len(t, teams, 30)

	seen := map[string]bool{}
	for _, team := range teams {
		assert.NotEmpty(t, team.ID)
		assert.Len(t, team.Abbrev, 3)
		assert.False(t, seen[team.ID], "duplicate team id %s", team.ID)
		seen[team.ID] = true
	}
}

func TestRefreshedDirectoryTakesPrecedence(t *testing.T) {
	SetAssetsPath(t.TempDir())

	scraped := []*Team{
		{ID: "1610612738", Abbrev: "BOS", Name: "Boston Celtics"},
		{ID: "1610612752", Abbrev: "NYK", Name: "New York Knicks"},
	}
	require.NoError(t, writeTeamDirectoryCache(scraped))

	teams := ActiveTeams()
	require.Len(t, teams, 2)
	assert.Equal(t, "BOS", teams[0].Abbrev)
	assert.Equal(t, "NYK", teams[1].Abbrev)
}

func TestCollectTeamsFromPageData(t *testing.T) {
	data := map[string]any{
		"props": map[string]any{
			"pageProps": map[string]any{
				"teams": []any{
					map[string]any{
						"teamId":           float64(1610612738),
						"teamAbbreviation": "BOS",
						"teamCity":         "Boston",
						"teamName":         "Celtics",
					},
					map[string]any{
						"teamId":       float64(1610612752),
						"abbreviation": "NYK",
						"teamName":     "Knicks",
					},
					// Repeated entries elsewhere in the page are ignored
					map[string]any{
						"teamId":           float64(1610612738),
						"teamAbbreviation": "BOS",
					},
					// Nodes without team keys are skipped
					map[string]any{"playerId": float64(12345)},
				},
			},
		},
	}

	teams := collectTeams(data)
	require.Len(t, teams, 2)
	assert.Equal(t, "1610612738", teams[0].ID)
	assert.Equal(t, "Boston Celtics", teams[0].Name)
	assert.Equal(t, "NYK", teams[1].Abbrev)
}
