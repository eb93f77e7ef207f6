package hoops

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownGameIDsAreDistinct(t *testing.T) {
	setupTestDB(t)

	rows := []Persistable{
		teamGameFixture("T1", "001", "W", 100),
		teamGameFixture("T2", "001", "L", 95),
		teamGameFixture("T1", "002", "L", 90),
	}
	require.NoError(t, BulkSave(rows))

	ids, err := NewDataFeed().KnownGameIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002"}, ids)
}

func TestGamesNeedingPlayerUpdate(t *testing.T) {
	setupTestDB(t)

	rows := []Persistable{
		teamGameFixture("T1", "001", "W", 100),
		teamGameFixture("T1", "002", "L", 90),
		teamGameFixture("T1", "003", "W", 105),
	}
	require.NoError(t, BulkSave(rows))
	require.NoError(t, Save(&FetchedGame{GameID: "002"}))

	pending, err := NewDataFeed().GamesNeedingPlayerUpdate()
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "003"}, pending)
}

func TestGamesNeedingPlayerUpdateEmptyWhenLedgerComplete(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, Save(teamGameFixture("T1", "001", "W", 100)))
	require.NoError(t, Save(&FetchedGame{GameID: "001"}))

	pending, err := NewDataFeed().GamesNeedingPlayerUpdate()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// seedBoxScoreCache writes a cached roster so game expansion runs without
// touching the box-score endpoint
func seedBoxScoreCache(t *testing.T, gameID string, playerIDs ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(Config.CachePath, 0755))
	data := "["
	for i, pid := range playerIDs {
		if i > 0 {
			data += ","
		}
		data += `{"playerId":"` + pid + `","teamId":"T1"}`
	}
	data += "]"
	require.NoError(t, os.WriteFile(boxScoreCachePath(gameID), []byte(data), 0644))
}

// gameLogServer serves a one-row player game log for any requested player
func gameLogServer(t *testing.T) *httptest.Server {
	t.Helper()
	body := `{"resource":"playergamelog","resultSets":[{
		"name":"PlayerGameLog",
		"headers":["SEASON_ID","Player_ID","Game_ID","GAME_DATE","MATCHUP","WL",
			"FGM","FGA","FG3M","FG3A","FTM","FTA","OREB","DREB",
			"AST","STL","BLK","TOV","PF","PLUS_MINUS","PTS"],
		"rowSet":[["22023",1629029,"001","JAN 01, 2024","AAA vs. BBB","W",
			5,10,1,3,2,2,1,4,3,1,0,2,2,4,13]]
	}]}`
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func overridePlayerGameLogURL(t *testing.T, url string) {
	t.Helper()
	prev := Config.PlayerGameLogURL
	Config.PlayerGameLogURL = url + "?PlayerID=%s"
	t.Cleanup(func() {
		Config.PlayerGameLogURL = prev
	})
}

func TestRefreshPlayerDataWithholdsGameOnPlayerFailure(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, Save(teamGameFixture("T1", "001", "W", 100)))
	seedBoxScoreCache(t, "001", "P1")

	// Game-log endpoint is down for every player
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()
	overridePlayerGameLogURL(t, srv.URL)

	require.NoError(t, NewDataFeed().RefreshPlayerData())

	players, err := CountWhere(&PlayerGame{}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, players)

	// No player rows landed, so the game must stay pending for a retry
	fetched, err := CountWhere(&FetchedGame{}, "game_id = ?", "001")
	require.NoError(t, err)
	assert.Equal(t, 0, fetched)
}

func TestRefreshPlayerDataRecordsGameOnSuccess(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, Save(teamGameFixture("T1", "001", "W", 100)))
	seedBoxScoreCache(t, "001", "1629029")

	srv := gameLogServer(t)
	defer srv.Close()
	overridePlayerGameLogURL(t, srv.URL)

	require.NoError(t, NewDataFeed().RefreshPlayerData())

	players, err := CountWhere(&PlayerGame{}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, players)

	fetched, err := CountWhere(&FetchedGame{}, "game_id = ?", "001")
	require.NoError(t, err)
	assert.Equal(t, 1, fetched)
}

func TestFetchedGameLedgerIdempotent(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, Save(&FetchedGame{GameID: "001"}))
	require.NoError(t, Save(&FetchedGame{GameID: "001"}))

	count, err := CountWhere(&FetchedGame{}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
