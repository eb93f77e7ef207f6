package hoops

import (
	"fmt"
	"sort"

	"github.com/richard-senior/courtline/internal/logger"
)

// PlayerFeaturePrefix marks a player-distribution feature on a team side
const PlayerFeaturePrefix = "PLAYER_"

// summaryNames lists the six summary points of a StatDistribution row
var summaryNames = []string{"MEAN", "MIN", "Q25", "Q50", "Q75", "MAX"}

// sideRow is one team's game annotated with the distribution of its
// players' statistics for that game
type sideRow struct {
	*AveragesRow
	playerFeatures map[string]float64
}

// SideFeatures is one team's state carried forward to its next game. The
// Next fields come from shifting each team's schedule one game ahead, so
// the features describe the team as it enters that game.
type SideFeatures struct {
	TeamID       string
	NextGameID   string
	NextHomeGame int
	NextWin      float64
	Features     map[string]float64
}

// TrainingRow pairs the two sides of one upcoming game. The label is 1
// when the home side went on to win.
type TrainingRow struct {
	GameID       string
	HomeTeamID   string
	AwayTeamID   string
	HomeFeatures map[string]float64
	AwayFeatures map[string]float64
	HomeWin      float64
}

// PlayerFeatureColumns returns the names of the player-distribution
// features on each side, one per summarised statistic and summary point
func PlayerFeatureColumns() []string {
	cols := DistributionColumns()
	out := make([]string, 0, len(cols)*len(summaryNames))
	for _, c := range cols {
		for _, s := range summaryNames {
			out = append(out, PlayerFeaturePrefix+c+"_"+s)
		}
	}
	return out
}

// FeatureColumns returns the per-side feature names of a training row: the
// team's own game values, their season-average form, and the player
// distribution features
func FeatureColumns() []string {
	var out []string
	out = append(out, AnalysisColumns()...)
	for _, c := range AnalysisColumns() {
		out = append(out, SeasonAvgPrefix+c)
	}
	out = append(out, PlayerFeatureColumns()...)
	return out
}

// completeGames filters team rows to games with exactly two sides present,
// dropping postponed or partially fetched games
func completeGames(rows []*AveragesRow) []*AveragesRow {
	perGame := make(map[string]int)
	for _, r := range rows {
		perGame[r.GameID]++
	}
	out := make([]*AveragesRow, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		if perGame[r.GameID] == 2 {
			out = append(out, r)
			continue
		}
		dropped++
	}
	if dropped > 0 {
		logger.Warn("Dropped team rows from incomplete games", dropped)
	}
	return out
}

// joinPlayerFeatures attaches each team-side's player distributions, joined
// on game id, venue flag and result. Sides with no distribution rows are
// dropped, as are sides whose recorded result disagrees with the players'.
func joinPlayerFeatures(rows []*AveragesRow, dists []*StatDistribution) []*sideRow {
	type sideKey struct {
		GameID   string
		HomeGame int
	}
	features := make(map[sideKey]map[string]float64)
	wins := make(map[sideKey]float64)
	for _, d := range dists {
		k := sideKey{GameID: d.GameID, HomeGame: d.HomeGame}
		m, ok := features[k]
		if !ok {
			m = make(map[string]float64, 6)
			features[k] = m
			wins[k] = d.Win
		}
		m[PlayerFeaturePrefix+d.Stat+"_MEAN"] = d.Mean
		m[PlayerFeaturePrefix+d.Stat+"_MIN"] = d.Min
		m[PlayerFeaturePrefix+d.Stat+"_Q25"] = d.Q25
		m[PlayerFeaturePrefix+d.Stat+"_Q50"] = d.Q50
		m[PlayerFeaturePrefix+d.Stat+"_Q75"] = d.Q75
		m[PlayerFeaturePrefix+d.Stat+"_MAX"] = d.Max
	}

	out := make([]*sideRow, 0, len(rows))
	unmatched := 0
	for _, r := range rows {
		k := sideKey{GameID: r.GameID, HomeGame: r.HomeGame}
		m, ok := features[k]
		if !ok || wins[k] != r.Win {
			unmatched++
			continue
		}
		out = append(out, &sideRow{AveragesRow: r, playerFeatures: m})
	}
	if unmatched > 0 {
		logger.Warn("Dropped team sides without matching player distributions", unmatched)
	}
	return out
}

func (s *sideRow) features() map[string]float64 {
	out := make(map[string]float64, len(s.Raw)+len(s.SeasonAvg)+len(s.playerFeatures))
	for col, v := range s.Raw {
		out[col] = v
	}
	for col, v := range s.SeasonAvg {
		out[SeasonAvgPrefix+col] = v
	}
	for col, v := range s.playerFeatures {
		out[col] = v
	}
	return out
}

// shiftForward converts side rows into features keyed on each team's
// following game. Each team's last recorded game has no following game and
// produces nothing.
func shiftForward(rows []*sideRow) []*SideFeatures {
	byTeam := make(map[string][]*sideRow)
	for _, r := range rows {
		byTeam[r.EntityID] = append(byTeam[r.EntityID], r)
	}

	teamIDs := make([]string, 0, len(byTeam))
	for id := range byTeam {
		teamIDs = append(teamIDs, id)
	}
	sort.Strings(teamIDs)

	var out []*SideFeatures
	for _, id := range teamIDs {
		teamRows := byTeam[id]
		sort.SliceStable(teamRows, func(i, j int) bool {
			if !teamRows[i].GameDate.Equal(teamRows[j].GameDate) {
				return teamRows[i].GameDate.Before(teamRows[j].GameDate)
			}
			return teamRows[i].GameID < teamRows[j].GameID
		})
		for i := 0; i+1 < len(teamRows); i++ {
			cur, next := teamRows[i], teamRows[i+1]
			out = append(out, &SideFeatures{
				TeamID:       id,
				NextGameID:   next.GameID,
				NextHomeGame: next.HomeGame,
				NextWin:      next.Win,
				Features:     cur.features(),
			})
		}
	}
	return out
}

// PairSides joins side features on the shared upcoming game: one side
// entering it at home, the other away. Games where either side is missing
// are skipped; a game where two sides claim the same venue is ambiguous
// and is dropped entirely.
func PairSides(sides []*SideFeatures) []*TrainingRow {
	home := make(map[string]*SideFeatures)
	away := make(map[string]*SideFeatures)
	contested := make(map[string]bool)
	for _, s := range sides {
		m := away
		if s.NextHomeGame == 1 {
			m = home
		}
		if _, dup := m[s.NextGameID]; dup {
			contested[s.NextGameID] = true
			continue
		}
		m[s.NextGameID] = s
	}
	if len(contested) > 0 {
		logger.Warn("Dropped games with conflicting venue claims", len(contested))
	}

	gameIDs := make([]string, 0, len(home))
	for id := range home {
		if contested[id] {
			continue
		}
		if _, ok := away[id]; ok {
			gameIDs = append(gameIDs, id)
		}
	}
	sort.Strings(gameIDs)

	rows := make([]*TrainingRow, 0, len(gameIDs))
	for _, id := range gameIDs {
		h, a := home[id], away[id]
		rows = append(rows, &TrainingRow{
			GameID:       id,
			HomeTeamID:   h.TeamID,
			AwayTeamID:   a.TeamID,
			HomeFeatures: h.Features,
			AwayFeatures: a.Features,
			HomeWin:      h.NextWin,
		})
	}
	return rows
}

// AssembleTrainingTable derives the labelled home-versus-away table from
// team averages rows and player distribution rows
func AssembleTrainingTable(teamRows []*AveragesRow, dists []*StatDistribution) []*TrainingRow {
	sides := joinPlayerFeatures(completeGames(teamRows), dists)
	return PairSides(shiftForward(sides))
}

// BuildTrainingTable loads the team game table and the distribution ledger
// and assembles the training table from them
func BuildTrainingTable() ([]*TrainingRow, error) {
	raw, err := FindAll(&TeamGame{})
	if err != nil {
		return nil, fmt.Errorf("failed to load team games: %w", err)
	}
	logs := make([]*GameLog, 0, len(raw))
	for _, r := range raw {
		logs = append(logs, r.(*TeamGame).Log())
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("no team games available, run the feed first")
	}

	rawDists, err := FindAll(&StatDistribution{})
	if err != nil {
		return nil, fmt.Errorf("failed to load distributions: %w", err)
	}
	dists := make([]*StatDistribution, 0, len(rawDists))
	for _, d := range rawDists {
		dists = append(dists, d.(*StatDistribution))
	}

	table := AssembleTrainingTable(SeasonAverages(logs), dists)
	logger.Info("Assembled training rows", len(table))
	return table, nil
}
