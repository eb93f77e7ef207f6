package hoops

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/richard-senior/courtline/internal/logger"
	"github.com/richard-senior/courtline/pkg/transport"
	"github.com/richard-senior/courtline/pkg/util"
)

// statsResponse is the envelope every stats endpoint returns: a list of
// result sets, each a header row plus untyped data rows
type statsResponse struct {
	Resource   string      `json:"resource"`
	ResultSets []resultSet `json:"resultSets"`
}

type resultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

// headerIndex maps canonical header names to column positions.
// Some endpoints use mixed-case aliases ("Player_ID", "Game_ID") for the
// same columns, so names are compared upper-cased.
func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToUpper(h)] = i
	}
	return idx
}

// cell returns the raw value at the named column, nil when the column is
// absent or the row is short
func cell(row []any, idx map[string]int, name string) any {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return nil
	}
	return row[i]
}

func stringCell(row []any, idx map[string]int, name string) (string, bool) {
	v := cell(row, idx, name)
	if v == nil {
		return "", false
	}
	s, err := util.GetAsString(v)
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}

func floatCell(row []any, idx map[string]int, name string) (float64, bool) {
	v := cell(row, idx, name)
	if v == nil {
		return 0, false
	}
	f, err := util.GetAsFloat(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseGameDate accepts the two date formats the endpoints emit, ISO for
// the game finder and "JAN 02, 2006" for player game logs
func parseGameDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("Jan 02, 2006", normaliseMonthCase(s)); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised game date %q", s)
}

func normaliseMonthCase(s string) string {
	if len(s) < 3 {
		return s
	}
	return s[:1] + strings.ToLower(s[1:3]) + s[3:]
}

// fetchStats pulls one endpoint and decodes the result-set envelope
func fetchStats(url string) (*statsResponse, error) {
	data, err := transport.GetJson(url)
	if err != nil {
		return nil, err
	}
	var resp statsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("error parsing stats response: %w", err)
	}
	if len(resp.ResultSets) == 0 {
		return nil, fmt.Errorf("stats response contains no result sets")
	}
	return &resp, nil
}

/////////////////////////////////////////////////////////////////////////
////// Team games
/////////////////////////////////////////////////////////////////////////

// FetchTeamGames returns every regular-season row the game finder holds for
// the given team. Rows with missing identity, result or statistic values
// are dropped.
func FetchTeamGames(teamID string) ([]*TeamGame, error) {
	if teamID == "" {
		return nil, fmt.Errorf("team id must not be empty")
	}
	resp, err := fetchStats(fmt.Sprintf(Config.GameFinderURL, teamID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch games for team %s: %w", teamID, err)
	}

	rs := resp.ResultSets[0]
	idx := headerIndex(rs.Headers)
	games := make([]*TeamGame, 0, len(rs.RowSet))
	dropped := 0
	for _, row := range rs.RowSet {
		g, ok := teamGameFromRow(row, idx)
		if !ok {
			dropped++
			continue
		}
		games = append(games, g)
	}
	if dropped > 0 {
		logger.Debug("Dropped incomplete team game rows", teamID, dropped)
	}
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].GameDate.Before(games[j].GameDate)
	})
	return games, nil
}

func teamGameFromRow(row []any, idx map[string]int) (*TeamGame, bool) {
	seasonID, ok := stringCell(row, idx, "SEASON_ID")
	if !ok {
		return nil, false
	}
	teamID, ok := stringCell(row, idx, "TEAM_ID")
	if !ok {
		return nil, false
	}
	gameID, ok := stringCell(row, idx, "GAME_ID")
	if !ok {
		return nil, false
	}
	dateStr, ok := stringCell(row, idx, "GAME_DATE")
	if !ok {
		return nil, false
	}
	gameDate, err := parseGameDate(dateStr)
	if err != nil {
		return nil, false
	}
	matchup, ok := stringCell(row, idx, "MATCHUP")
	if !ok {
		return nil, false
	}
	wl, ok := stringCell(row, idx, "WL")
	if !ok {
		return nil, false
	}

	g := &TeamGame{
		SeasonID: seasonID,
		TeamID:   teamID,
		GameID:   gameID,
		GameDate: gameDate,
		Matchup:  matchup,
		WL:       wl,
	}
	g.TeamAbbrev, _ = stringCell(row, idx, "TEAM_ABBREVIATION")
	g.TeamName, _ = stringCell(row, idx, "TEAM_NAME")

	if !statsFromRow(row, idx, &g.StatLine) {
		return nil, false
	}
	return g, true
}

// statsFromRow fills a stat line from the row, requiring every statistic
// to be present
func statsFromRow(row []any, idx map[string]int, s *StatLine) bool {
	v := make([]float64, 0, len(statNames))
	for _, name := range statNames {
		f, ok := floatCell(row, idx, name)
		if !ok {
			return false
		}
		v = append(v, f)
	}
	return s.SetVector(v) == nil
}

/////////////////////////////////////////////////////////////////////////
////// Box scores
/////////////////////////////////////////////////////////////////////////

// boxScorePlayer is the slice of a box score row we keep in the cache
type boxScorePlayer struct {
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId"`
}

func boxScoreCachePath(gameID string) string {
	return Config.CachePath + "boxscore-" + gameID + ".json"
}

// FetchPlayerIDsForGame returns the ids of every player listed in the
// traditional box score for the given game. Completed box scores never
// change so responses are cached on disk indefinitely.
func FetchPlayerIDsForGame(gameID string) ([]string, error) {
	if gameID == "" {
		return nil, fmt.Errorf("game id must not be empty")
	}

	if players, err := loadBoxScoreCache(gameID); err == nil {
		return playerIDs(players), nil
	}

	resp, err := fetchStats(fmt.Sprintf(Config.BoxScoreURL, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch box score for game %s: %w", gameID, err)
	}

	players, err := boxScorePlayers(resp)
	if err != nil {
		return nil, err
	}
	saveBoxScoreCache(gameID, players)
	return playerIDs(players), nil
}

func boxScorePlayers(resp *statsResponse) ([]boxScorePlayer, error) {
	rs := playerStatsResultSet(resp)
	if rs == nil {
		return nil, fmt.Errorf("box score response contains no player stats")
	}
	idx := headerIndex(rs.Headers)
	players := make([]boxScorePlayer, 0, len(rs.RowSet))
	seen := map[string]bool{}
	for _, row := range rs.RowSet {
		pid, ok := stringCell(row, idx, "PLAYER_ID")
		if !ok || seen[pid] {
			continue
		}
		seen[pid] = true
		tid, _ := stringCell(row, idx, "TEAM_ID")
		players = append(players, boxScorePlayer{PlayerID: pid, TeamID: tid})
	}
	return players, nil
}

func playerStatsResultSet(resp *statsResponse) *resultSet {
	for i := range resp.ResultSets {
		if strings.EqualFold(resp.ResultSets[i].Name, "PlayerStats") {
			return &resp.ResultSets[i]
		}
	}
	// Fall back to the first set, which is the player table on this endpoint
	if len(resp.ResultSets) > 0 {
		return &resp.ResultSets[0]
	}
	return nil
}

func playerIDs(players []boxScorePlayer) []string {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

func loadBoxScoreCache(gameID string) ([]boxScorePlayer, error) {
	data, err := os.ReadFile(boxScoreCachePath(gameID))
	if err != nil {
		return nil, err
	}
	var players []boxScorePlayer
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("empty box score cache for game %s", gameID)
	}
	return players, nil
}

func saveBoxScoreCache(gameID string, players []boxScorePlayer) {
	if err := os.MkdirAll(Config.CachePath, 0755); err != nil {
		logger.Warn("Failed to create cache directory", err)
		return
	}
	data, err := json.Marshal(players)
	if err != nil {
		return
	}
	if err := os.WriteFile(boxScoreCachePath(gameID), data, 0644); err != nil {
		logger.Warn("Failed to write box score cache", gameID, err)
	}
}

/////////////////////////////////////////////////////////////////////////
////// Player game logs
/////////////////////////////////////////////////////////////////////////

// FetchPlayerGames returns the full regular-season game log for one player.
// The endpoint aliases identity columns as Player_ID and Game_ID and emits
// dates as "JAN 02, 2006"; both are normalised here.
func FetchPlayerGames(playerID string) ([]*PlayerGame, error) {
	if playerID == "" {
		return nil, fmt.Errorf("player id must not be empty")
	}
	resp, err := fetchStats(fmt.Sprintf(Config.PlayerGameLogURL, playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game log for player %s: %w", playerID, err)
	}

	rs := resp.ResultSets[0]
	idx := headerIndex(rs.Headers)
	games := make([]*PlayerGame, 0, len(rs.RowSet))
	dropped := 0
	for _, row := range rs.RowSet {
		g, ok := playerGameFromRow(row, idx, playerID)
		if !ok {
			dropped++
			continue
		}
		games = append(games, g)
	}
	if dropped > 0 {
		logger.Debug("Dropped incomplete player game rows", playerID, dropped)
	}
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].GameDate.Before(games[j].GameDate)
	})
	return games, nil
}

func playerGameFromRow(row []any, idx map[string]int, playerID string) (*PlayerGame, bool) {
	seasonID, ok := stringCell(row, idx, "SEASON_ID")
	if !ok {
		return nil, false
	}
	gameID, ok := stringCell(row, idx, "GAME_ID")
	if !ok {
		return nil, false
	}
	dateStr, ok := stringCell(row, idx, "GAME_DATE")
	if !ok {
		return nil, false
	}
	gameDate, err := parseGameDate(dateStr)
	if err != nil {
		return nil, false
	}
	matchup, ok := stringCell(row, idx, "MATCHUP")
	if !ok {
		return nil, false
	}
	wl, ok := stringCell(row, idx, "WL")
	if !ok {
		return nil, false
	}

	pid, ok := stringCell(row, idx, "PLAYER_ID")
	if !ok {
		pid = playerID
	}

	g := &PlayerGame{
		SeasonID: seasonID,
		PlayerID: pid,
		GameID:   gameID,
		GameDate: gameDate,
		Matchup:  matchup,
		WL:       wl,
	}
	if !statsFromRow(row, idx, &g.StatLine) {
		return nil, false
	}
	return g, true
}
