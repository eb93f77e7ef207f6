package hoops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func teamLog(entityID, gameID string, date time.Time, matchup, wl string, pts float64) *GameLog {
	g := &GameLog{
		SeasonID: "22023",
		EntityID: entityID,
		GameID:   gameID,
		GameDate: date,
		Matchup:  matchup,
		WL:       wl,
	}
	g.PTS = pts
	return g
}

func TestSeasonAveragesFirstRowEqualsRaw(t *testing.T) {
	logs := []*GameLog{
		teamLog("T1", "001", day(1), "T1 vs. T2", "W", 110),
	}
	rows := SeasonAverages(logs)
	require.Len(t, rows, 1)

	for _, col := range AnalysisColumns() {
		assert.Equal(t, rows[0].Raw[col], rows[0].SeasonAvg[col], col)
	}
	assert.Equal(t, 1.0, rows[0].SeasonAvg["WL"])
	assert.Equal(t, 0.0, rows[0].Raw["REST_DAYS"])
}

func TestSeasonAveragesRunningMean(t *testing.T) {
	logs := []*GameLog{
		teamLog("T1", "001", day(1), "T1 vs. T2", "W", 100),
		teamLog("T1", "002", day(3), "T1 @ T3", "L", 110),
		teamLog("T1", "003", day(6), "T1 vs. T4", "W", 90),
	}
	rows := SeasonAverages(logs)
	require.Len(t, rows, 3)

	assert.Equal(t, 100.0, rows[0].SeasonAvg["PTS"])
	assert.Equal(t, 105.0, rows[1].SeasonAvg["PTS"])
	assert.Equal(t, 100.0, rows[2].SeasonAvg["PTS"])

	// Two wins out of three
	assert.InDelta(t, 2.0/3.0, rows[2].SeasonAvg["WL"], 1e-9)
}

func TestSeasonAveragesRestDays(t *testing.T) {
	logs := []*GameLog{
		teamLog("T1", "001", day(1), "T1 vs. T2", "W", 100),
		teamLog("T1", "002", day(4), "T1 @ T3", "L", 110),
	}
	rows := SeasonAverages(logs)
	require.Len(t, rows, 2)

	assert.Equal(t, 0.0, rows[0].Raw["REST_DAYS"])
	assert.Equal(t, 3.0, rows[1].Raw["REST_DAYS"])
}

func TestSeasonAveragesResetAcrossSeasons(t *testing.T) {
	older := teamLog("T1", "001", time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), "T1 vs. T2", "W", 100)
	older.SeasonID = "22022"
	newer := teamLog("T1", "002", time.Date(2023, 10, 25, 0, 0, 0, 0, time.UTC), "T1 vs. T2", "L", 80)

	rows := SeasonAverages([]*GameLog{older, newer})
	require.Len(t, rows, 2)

	// New season restarts the average at the raw values
	assert.Equal(t, 80.0, rows[1].SeasonAvg["PTS"])
	assert.Equal(t, 0.0, rows[1].SeasonAvg["WL"])
	// Rest days still count against the previous season's last game
	assert.Equal(t, 207.0, rows[1].Raw["REST_DAYS"])
}

func TestSeasonAveragesUnsortedInput(t *testing.T) {
	logs := []*GameLog{
		teamLog("T1", "002", day(3), "T1 @ T3", "L", 110),
		teamLog("T1", "001", day(1), "T1 vs. T2", "W", 100),
	}
	rows := SeasonAverages(logs)
	require.Len(t, rows, 2)

	assert.Equal(t, "001", rows[0].GameID)
	assert.Equal(t, 105.0, rows[1].SeasonAvg["PTS"])
}

func TestHomeGameFlag(t *testing.T) {
	home := teamLog("T1", "001", day(1), "T1 vs. T2", "W", 100)
	away := teamLog("T1", "002", day(2), "T1 @ T2", "L", 90)

	assert.Equal(t, 1, home.HomeGame())
	assert.Equal(t, 0, away.HomeGame())
}

func TestAnalysisColumns(t *testing.T) {
	cols := AnalysisColumns()
	require.Len(t, cols, 17)
	assert.Equal(t, "WL", cols[0])
	assert.Equal(t, "REST_DAYS", cols[len(cols)-1])
}
