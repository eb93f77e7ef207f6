package hoops

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB points the configuration at a throwaway directory and opens a
// fresh database there
func setupTestDB(t *testing.T) {
	t.Helper()
	SetAssetsPath(t.TempDir())
	require.NoError(t, InitDatabase(Config.DbPath))
	t.Cleanup(func() {
		CloseDatabase()
	})
}

func teamGameFixture(teamID, gameID, wl string, pts float64) *TeamGame {
	g := &TeamGame{
		SeasonID:   "22023",
		TeamID:     teamID,
		TeamAbbrev: "AAA",
		GameID:     gameID,
		GameDate:   day(1),
		Matchup:    "AAA vs. BBB",
		WL:         wl,
	}
	g.PTS = pts
	return g
}

func TestSaveAndFindRoundTrip(t *testing.T) {
	setupTestDB(t)

	saved := teamGameFixture("T1", "001", "W", 112)
	saved.FGA = 88
	require.NoError(t, Save(saved))

	loaded := &TeamGame{}
	require.NoError(t, FindByPrimaryKey(loaded, saved.GetPrimaryKey()))

	assert.Equal(t, "22023", loaded.SeasonID)
	assert.Equal(t, "W", loaded.WL)
	assert.Equal(t, 112.0, loaded.PTS)
	assert.Equal(t, 88.0, loaded.FGA)
	assert.False(t, loaded.CreatedAt.IsZero())
}

func TestSaveDeduplicatesOnCompoundKey(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, Save(teamGameFixture("T1", "001", "W", 100)))
	require.NoError(t, Save(teamGameFixture("T1", "001", "W", 105)))

	count, err := CountWhere(&TeamGame{}, "team_id = ?", "T1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	loaded := &TeamGame{}
	require.NoError(t, FindByPrimaryKey(loaded, map[string]any{"team_id": "T1", "game_id": "001"}))
	assert.Equal(t, 105.0, loaded.PTS)
}

func TestSameGameDifferentTeamsBothKept(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, Save(teamGameFixture("T1", "001", "W", 100)))
	require.NoError(t, Save(teamGameFixture("T2", "001", "L", 95)))

	count, err := CountWhere(&TeamGame{}, "game_id = ?", "001")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFindWhere(t *testing.T) {
	setupTestDB(t)

	rows := []Persistable{
		teamGameFixture("T1", "001", "W", 100),
		teamGameFixture("T1", "002", "L", 90),
		teamGameFixture("T2", "003", "W", 110),
	}
	require.NoError(t, BulkSave(rows))

	found, err := FindWhere(&TeamGame{}, "team_id = ?", "T1")
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, f := range found {
		assert.Equal(t, "T1", f.(*TeamGame).TeamID)
	}
}

// rejectedGame refuses to save, forcing a mid-batch failure
type rejectedGame struct {
	TeamGame
}

func (r *rejectedGame) BeforeSave() error {
	return errors.New("rejected")
}

func TestBulkSaveRollsBackOnFailure(t *testing.T) {
	setupTestDB(t)

	bad := &rejectedGame{TeamGame: *teamGameFixture("T3", "003", "W", 99)}
	rows := []Persistable{
		teamGameFixture("T1", "001", "W", 100),
		teamGameFixture("T2", "002", "L", 90),
		bad,
	}
	require.Error(t, BulkSave(rows))

	// The earlier saves must not survive the failed batch
	count, err := CountWhere(&TeamGame{}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestEmbeddedStatColumnsPersisted(t *testing.T) {
	setupTestDB(t)

	g := teamGameFixture("T1", "001", "W", 100)
	require.NoError(t, g.SetVector([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}))
	require.NoError(t, Save(g))

	loaded := &TeamGame{}
	require.NoError(t, FindByPrimaryKey(loaded, g.GetPrimaryKey()))
	assert.Equal(t, g.Vector(), loaded.Vector())
}
