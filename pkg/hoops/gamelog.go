package hoops

import (
	"fmt"
	"strings"
	"time"
)

// Compile-time checks that the game tables implement Persistable
var _ Persistable = (*TeamGame)(nil)
var _ Persistable = (*PlayerGame)(nil)

// StatLine holds the box-score statistics carried for every game row.
// Shot percentages, minutes and total rebounds from the remote source are
// deliberately absent: percentages are reconstructable from makes/attempts
// and REB from OREB+DREB.
type StatLine struct {
	FGM       float64 `json:"fgm" column:"fgm" dbtype:"REAL DEFAULT 0"`
	FGA       float64 `json:"fga" column:"fga" dbtype:"REAL DEFAULT 0"`
	FG3M      float64 `json:"fg3m" column:"fg3m" dbtype:"REAL DEFAULT 0"`
	FG3A      float64 `json:"fg3a" column:"fg3a" dbtype:"REAL DEFAULT 0"`
	FTM       float64 `json:"ftm" column:"ftm" dbtype:"REAL DEFAULT 0"`
	FTA       float64 `json:"fta" column:"fta" dbtype:"REAL DEFAULT 0"`
	OREB      float64 `json:"oreb" column:"oreb" dbtype:"REAL DEFAULT 0"`
	DREB      float64 `json:"dreb" column:"dreb" dbtype:"REAL DEFAULT 0"`
	AST       float64 `json:"ast" column:"ast" dbtype:"REAL DEFAULT 0"`
	STL       float64 `json:"stl" column:"stl" dbtype:"REAL DEFAULT 0"`
	BLK       float64 `json:"blk" column:"blk" dbtype:"REAL DEFAULT 0"`
	TOV       float64 `json:"tov" column:"tov" dbtype:"REAL DEFAULT 0"`
	PF        float64 `json:"pf" column:"pf" dbtype:"REAL DEFAULT 0"`
	PTS       float64 `json:"pts" column:"pts" dbtype:"REAL DEFAULT 0"`
	PlusMinus float64 `json:"plusMinus" column:"plus_minus" dbtype:"REAL DEFAULT 0"`
}

// statNames lists the StatLine columns in vector order
var statNames = []string{
	"FGM", "FGA", "FG3M", "FG3A", "FTM", "FTA", "OREB", "DREB",
	"AST", "STL", "BLK", "TOV", "PF", "PTS", "PLUS_MINUS",
}

// StatColumns returns the box-score statistic names in vector order
func StatColumns() []string {
	out := make([]string, len(statNames))
	copy(out, statNames)
	return out
}

// Vector returns the stat line as a slice in StatColumns order
func (s *StatLine) Vector() []float64 {
	return []float64{
		s.FGM, s.FGA, s.FG3M, s.FG3A, s.FTM, s.FTA, s.OREB, s.DREB,
		s.AST, s.STL, s.BLK, s.TOV, s.PF, s.PTS, s.PlusMinus,
	}
}

// SetVector populates the stat line from a slice in StatColumns order
func (s *StatLine) SetVector(v []float64) error {
	if len(v) != len(statNames) {
		return fmt.Errorf("stat vector has %d values, want %d", len(v), len(statNames))
	}
	s.FGM, s.FGA, s.FG3M, s.FG3A, s.FTM, s.FTA, s.OREB, s.DREB = v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7]
	s.AST, s.STL, s.BLK, s.TOV, s.PF, s.PTS, s.PlusMinus = v[8], v[9], v[10], v[11], v[12], v[13], v[14]
	return nil
}

// GameLog is the neutral per-entity-per-game row the analyzer works on.
// An entity is a team or a player; TeamAbbrev is empty for player rows.
type GameLog struct {
	SeasonID   string
	EntityID   string
	TeamAbbrev string
	GameID     string
	GameDate   time.Time
	Matchup    string
	WL         string
	StatLine
}

// SeasonYear returns the inclusive season year token, the last four
// characters of the season identifier (e.g. "22023" -> "2023")
func (g *GameLog) SeasonYear() string {
	if len(g.SeasonID) < 4 {
		return g.SeasonID
	}
	return g.SeasonID[len(g.SeasonID)-4:]
}

// Win returns 1 for a win, 0 otherwise
func (g *GameLog) Win() float64 {
	if g.WL == "W" {
		return 1
	}
	return 0
}

// HomeGame returns 0 for away games (matchup contains the @ marker), else 1
func (g *GameLog) HomeGame() int {
	if strings.Contains(g.Matchup, "@") {
		return 0
	}
	return 1
}

/////////////////////////////////////////////////////////////////////////
////// Persisted game tables
/////////////////////////////////////////////////////////////////////////

// TeamGame is one team's row for one game, as fetched from the game finder
type TeamGame struct {
	SeasonID   string    `json:"seasonId" column:"season_id" dbtype:"TEXT NOT NULL" index:"true"`
	TeamID     string    `json:"teamId" column:"team_id" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	TeamAbbrev string    `json:"teamAbbreviation" column:"team_abbreviation" dbtype:"TEXT"`
	TeamName   string    `json:"teamName" column:"team_name" dbtype:"TEXT"`
	GameID     string    `json:"gameId" column:"game_id" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	GameDate   time.Time `json:"gameDate" column:"game_date" dbtype:"DATETIME" index:"true"`
	Matchup    string    `json:"matchup" column:"matchup" dbtype:"TEXT"`
	WL         string    `json:"wl" column:"wl" dbtype:"TEXT"`
	StatLine

	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updatedAt" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// GetTableName returns the table name for team game rows
func (t *TeamGame) GetTableName() string {
	return "team_games"
}

// GetPrimaryKey returns the compound primary key as a map
func (t *TeamGame) GetPrimaryKey() map[string]interface{} {
	return map[string]any{
		"team_id": t.TeamID,
		"game_id": t.GameID,
	}
}

// BeforeSave is called before saving the row
func (t *TeamGame) BeforeSave() error {
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return nil
}

// AfterSave is called after saving the row
func (t *TeamGame) AfterSave() error {
	return nil
}

// Log converts the persisted row to the neutral analyzer form
func (t *TeamGame) Log() *GameLog {
	return &GameLog{
		SeasonID:   t.SeasonID,
		EntityID:   t.TeamID,
		TeamAbbrev: t.TeamAbbrev,
		GameID:     t.GameID,
		GameDate:   t.GameDate,
		Matchup:    t.Matchup,
		WL:         t.WL,
		StatLine:   t.StatLine,
	}
}

// PlayerGame is one player's row for one game, as fetched from the game log
type PlayerGame struct {
	SeasonID string    `json:"seasonId" column:"season_id" dbtype:"TEXT NOT NULL" index:"true"`
	PlayerID string    `json:"playerId" column:"player_id" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	GameID   string    `json:"gameId" column:"game_id" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	GameDate time.Time `json:"gameDate" column:"game_date" dbtype:"DATETIME" index:"true"`
	Matchup  string    `json:"matchup" column:"matchup" dbtype:"TEXT"`
	WL       string    `json:"wl" column:"wl" dbtype:"TEXT"`
	StatLine

	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updatedAt" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// GetTableName returns the table name for player game rows
func (p *PlayerGame) GetTableName() string {
	return "player_games"
}

// GetPrimaryKey returns the compound primary key as a map
func (p *PlayerGame) GetPrimaryKey() map[string]interface{} {
	return map[string]any{
		"player_id": p.PlayerID,
		"game_id":   p.GameID,
	}
}

// BeforeSave is called before saving the row
func (p *PlayerGame) BeforeSave() error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return nil
}

// AfterSave is called after saving the row
func (p *PlayerGame) AfterSave() error {
	return nil
}

// Log converts the persisted row to the neutral analyzer form
func (p *PlayerGame) Log() *GameLog {
	return &GameLog{
		SeasonID: p.SeasonID,
		EntityID: p.PlayerID,
		GameID:   p.GameID,
		GameDate: p.GameDate,
		Matchup:  p.Matchup,
		WL:       p.WL,
		StatLine: p.StatLine,
	}
}
