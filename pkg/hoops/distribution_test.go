package hoops

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantileLinearInterpolation(t *testing.T) {
	sample := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.75, quantile(sample, 0.25), 1e-9)
	assert.InDelta(t, 2.5, quantile(sample, 0.50), 1e-9)
	assert.InDelta(t, 3.25, quantile(sample, 0.75), 1e-9)
}

func TestQuantileSingleValue(t *testing.T) {
	assert.Equal(t, 7.0, quantile([]float64{7}, 0.25))
	assert.Equal(t, 7.0, quantile([]float64{7}, 0.75))
}

func TestSummarize(t *testing.T) {
	mean, min, q25, q50, q75, max, err := summarize([]float64{4, 1, 3, 2})
	require.NoError(t, err)

	assert.InDelta(t, 2.5, mean, 1e-9)
	assert.Equal(t, 1.0, min)
	assert.InDelta(t, 1.75, q25, 1e-9)
	assert.InDelta(t, 2.5, q50, 1e-9)
	assert.InDelta(t, 3.25, q75, 1e-9)
	assert.Equal(t, 4.0, max)
}

func TestSummarizeEmptySample(t *testing.T) {
	_, _, _, _, _, _, err := summarize(nil)
	assert.Error(t, err)
}

func playerRowsForGame(gameID string, homeGame int, wl string, points []float64) []*AveragesRow {
	rows := make([]*AveragesRow, 0, len(points))
	for i, pts := range points {
		log := teamLog(fmt.Sprintf("P%d", i), gameID, day(1), "AAA vs. BBB", wl, pts)
		rows = append(rows, SeasonAverages([]*GameLog{log})...)
	}
	for _, r := range rows {
		r.HomeGame = homeGame
	}
	return rows
}

func TestSummarizeSides(t *testing.T) {
	rows := playerRowsForGame("001", 1, "W", []float64{10, 20, 30, 40})
	rows = append(rows, playerRowsForGame("001", 0, "L", []float64{5, 15})...)

	dists, err := SummarizeSides(rows)
	require.NoError(t, err)

	// One row per side per distribution column
	require.Len(t, dists, 2*len(DistributionColumns()))

	var homePts *StatDistribution
	for _, d := range dists {
		if d.GameID == "001" && d.HomeGame == 1 && d.Stat == "PTS" {
			homePts = d
		}
	}
	require.NotNil(t, homePts)
	assert.Equal(t, 1.0, homePts.Win)
	assert.InDelta(t, 25.0, homePts.Mean, 1e-9)
	assert.Equal(t, 10.0, homePts.Min)
	assert.InDelta(t, 17.5, homePts.Q25, 1e-9)
	assert.InDelta(t, 25.0, homePts.Q50, 1e-9)
	assert.InDelta(t, 32.5, homePts.Q75, 1e-9)
	assert.Equal(t, 40.0, homePts.Max)
}

func TestSummarizeSidesEmptyInput(t *testing.T) {
	dists, err := SummarizeSides(nil)
	require.NoError(t, err)
	assert.Empty(t, dists)
}

func TestDistributionColumns(t *testing.T) {
	cols := DistributionColumns()

	// Raw stats plus rest days plus the season-average form of everything
	require.Len(t, cols, len(statNames)+1+len(AnalysisColumns()))
	assert.NotContains(t, cols, "WL")
	assert.Contains(t, cols, "REST_DAYS")
	assert.Contains(t, cols, "SEASON_AVG_WL")
	assert.Contains(t, cols, "SEASON_AVG_REST_DAYS")
}

func TestUpdatePlayerDistributionsIdempotent(t *testing.T) {
	setupTestDB(t)

	games := []Persistable{
		playerGameFixture("P1", "001", "AAA vs. BBB", "W", 10),
		playerGameFixture("P2", "001", "AAA vs. BBB", "W", 20),
		playerGameFixture("P3", "001", "BBB @ AAA", "L", 15),
	}
	require.NoError(t, BulkSave(games))

	require.NoError(t, UpdatePlayerDistributions())
	first, err := CountWhere(&StatDistribution{}, "")
	require.NoError(t, err)
	require.Greater(t, first, 0)

	// Re-running recomputes in place rather than appending
	require.NoError(t, UpdatePlayerDistributions())
	second, err := CountWhere(&StatDistribution{}, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func playerGameFixture(playerID, gameID, matchup, wl string, pts float64) *PlayerGame {
	g := &PlayerGame{
		SeasonID: "22023",
		PlayerID: playerID,
		GameID:   gameID,
		GameDate: day(1),
		Matchup:  matchup,
		WL:       wl,
	}
	g.PTS = pts
	return g
}
