package hoops

import (
	"fmt"
	"sort"
	"time"

	"github.com/richard-senior/courtline/internal/logger"
)

var _ Persistable = (*FetchedGame)(nil)

// FetchedGame marks a game whose box score has been processed and whose
// players' game logs are on disk. Games in this ledger are never
// re-expanded.
type FetchedGame struct {
	GameID    string    `json:"gameId" column:"game_id" dbtype:"TEXT NOT NULL" primary:"true"`
	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// GetTableName returns the table name for the fetched-game ledger
func (f *FetchedGame) GetTableName() string {
	return "fetched_games"
}

// GetPrimaryKey returns the primary key as a map
func (f *FetchedGame) GetPrimaryKey() map[string]interface{} {
	return map[string]any{"game_id": f.GameID}
}

// BeforeSave is called before saving the row
func (f *FetchedGame) BeforeSave() error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	return nil
}

// AfterSave is called after saving the row
func (f *FetchedGame) AfterSave() error {
	return nil
}

/////////////////////////////////////////////////////////////////////////
////// Data feed
/////////////////////////////////////////////////////////////////////////

// DataFeed keeps the local game tables in step with the remote source.
// Team rows are refreshed wholesale; player rows are expanded game by game
// through the box score, with the fetched-game ledger recording which
// games have already been expanded.
type DataFeed struct {
	// fetchedPlayers records players whose full game log was already
	// pulled during this run, so expanding several games in one pass does
	// not refetch the same log
	fetchedPlayers map[string]bool
	// failedPlayers records players whose game-log fetch failed this run;
	// games listing them are withheld from the ledger so they are retried
	failedPlayers map[string]bool
}

// NewDataFeed returns a feed ready to run
func NewDataFeed() *DataFeed {
	return &DataFeed{
		fetchedPlayers: make(map[string]bool),
		failedPlayers:  make(map[string]bool),
	}
}

// RefreshTeamGames pulls the full game-finder history for every active team
// and upserts it. Rows already present are overwritten in place, so
// repeated refreshes never duplicate a game. A failing team is logged and
// skipped rather than aborting the run.
func (d *DataFeed) RefreshTeamGames() error {
	teams := ActiveTeams()
	logger.Info("Refreshing team games", len(teams))
	for _, team := range teams {
		games, err := FetchTeamGames(team.ID)
		if err != nil {
			logger.Warn("Skipping team after failed refresh", team.Abbrev, err)
			continue
		}
		rows := make([]Persistable, len(games))
		for i, g := range games {
			rows[i] = g
		}
		if err := BulkSave(rows); err != nil {
			return fmt.Errorf("failed to save games for %s: %w", team.Abbrev, err)
		}
		logger.Info("Saved team games", team.Abbrev, len(games))
	}
	return nil
}

// KnownGameIDs returns the distinct game ids present in the team game table
func (d *DataFeed) KnownGameIDs() ([]string, error) {
	db, err := GetDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query("SELECT DISTINCT game_id FROM team_games ORDER BY game_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query known game ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GamesNeedingPlayerUpdate returns the known game ids not yet in the
// fetched-game ledger
func (d *DataFeed) GamesNeedingPlayerUpdate() ([]string, error) {
	known, err := d.KnownGameIDs()
	if err != nil {
		return nil, err
	}
	fetched, err := FindAll(&FetchedGame{})
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(fetched))
	for _, f := range fetched {
		done[f.(*FetchedGame).GameID] = true
	}
	var pending []string
	for _, id := range known {
		if !done[id] {
			pending = append(pending, id)
		}
	}
	return pending, nil
}

// RefreshPlayerGames fetches and upserts the full game log of each player.
// Players with no logged games are skipped, as are players already pulled
// during this run. A failing player is logged and skipped.
func (d *DataFeed) RefreshPlayerGames(playerIDs []string) error {
	for _, pid := range playerIDs {
		if d.fetchedPlayers[pid] {
			continue
		}
		games, err := FetchPlayerGames(pid)
		if err != nil {
			logger.Warn("Skipping player after failed refresh", pid, err)
			d.failedPlayers[pid] = true
			continue
		}
		delete(d.failedPlayers, pid)
		if len(games) == 0 {
			d.fetchedPlayers[pid] = true
			continue
		}
		rows := make([]Persistable, len(games))
		for i, g := range games {
			rows[i] = g
		}
		if err := BulkSave(rows); err != nil {
			return fmt.Errorf("failed to save game log for player %s: %w", pid, err)
		}
		d.fetchedPlayers[pid] = true
	}
	return nil
}

// RefreshPlayerData expands every game the ledger has not seen yet: the
// union of player ids across the pending box scores is refreshed, then the
// games are appended to the ledger. A game whose box score cannot be
// fetched stays pending for the next run.
func (d *DataFeed) RefreshPlayerData() error {
	pending, err := d.GamesNeedingPlayerUpdate()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		logger.Info("Player data already up to date")
		return nil
	}
	logger.Info("Expanding player data", len(pending))

	players := make(map[string]bool)
	rosters := make(map[string][]string)
	var expanded []string
	for _, gameID := range pending {
		ids, err := FetchPlayerIDsForGame(gameID)
		if err != nil {
			logger.Warn("Skipping game after failed box score fetch", gameID, err)
			continue
		}
		for _, pid := range ids {
			players[pid] = true
		}
		rosters[gameID] = ids
		expanded = append(expanded, gameID)
	}

	union := make([]string, 0, len(players))
	for pid := range players {
		union = append(union, pid)
	}
	sort.Strings(union)
	if err := d.RefreshPlayerGames(union); err != nil {
		return err
	}

	// A game is recorded only when its whole roster was refreshed; games
	// listing a failed player stay pending and are retried next run
	for _, gameID := range expanded {
		if pid, ok := d.rosterFailure(rosters[gameID]); ok {
			logger.Warn("Withholding game from ledger after player failures", gameID, pid)
			continue
		}
		if err := Save(&FetchedGame{GameID: gameID}); err != nil {
			return fmt.Errorf("failed to record game %s in the ledger: %w", gameID, err)
		}
	}
	return nil
}

func (d *DataFeed) rosterFailure(roster []string) (string, bool) {
	for _, pid := range roster {
		if d.failedPlayers[pid] {
			return pid, true
		}
	}
	return "", false
}

// Run refreshes the team directory, then team games, then expands player
// data for any new games
func (d *DataFeed) Run() error {
	if _, err := RefreshTeamDirectory(); err != nil {
		return err
	}
	if err := d.RefreshTeamGames(); err != nil {
		return err
	}
	return d.RefreshPlayerData()
}
