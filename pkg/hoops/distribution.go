package hoops

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/richard-senior/courtline/internal/logger"
)

var _ Persistable = (*StatDistribution)(nil)

// StatDistribution summarises one statistic across the players on one side
// of one game. Six summary points are kept per statistic.
type StatDistribution struct {
	GameID   string `json:"gameId" column:"game_id" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	HomeGame int    `json:"homeGame" column:"home_game" dbtype:"INTEGER NOT NULL" primary:"true" index:"true"`
	Stat     string `json:"stat" column:"stat" dbtype:"TEXT NOT NULL" primary:"true"`

	// Win is the side's result, shared by every player on it; it is part
	// of the later join with team rows
	Win float64 `json:"win" column:"win" dbtype:"REAL DEFAULT 0"`

	Mean float64 `json:"mean" column:"mean" dbtype:"REAL DEFAULT 0"`
	Min  float64 `json:"min" column:"min" dbtype:"REAL DEFAULT 0"`
	Q25  float64 `json:"q25" column:"q25" dbtype:"REAL DEFAULT 0"`
	Q50  float64 `json:"q50" column:"q50" dbtype:"REAL DEFAULT 0"`
	Q75  float64 `json:"q75" column:"q75" dbtype:"REAL DEFAULT 0"`
	Max  float64 `json:"max" column:"max" dbtype:"REAL DEFAULT 0"`

	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updatedAt" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// GetTableName returns the table name for distribution rows
func (s *StatDistribution) GetTableName() string {
	return "stat_distributions"
}

// GetPrimaryKey returns the compound primary key as a map
func (s *StatDistribution) GetPrimaryKey() map[string]interface{} {
	return map[string]any{
		"game_id":   s.GameID,
		"home_game": s.HomeGame,
		"stat":      s.Stat,
	}
}

// BeforeSave is called before saving the row
func (s *StatDistribution) BeforeSave() error {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return nil
}

// AfterSave is called after saving the row
func (s *StatDistribution) AfterSave() error {
	return nil
}

// DistributionColumns returns the statistics summarised per game side: the
// raw box-score statistics, rest days, and the season-average form of every
// analysis column. The raw win flag is excluded because it is constant
// within a side.
func DistributionColumns() []string {
	cols := make([]string, 0, 2*len(statNames)+3)
	cols = append(cols, statNames...)
	cols = append(cols, "REST_DAYS")
	for _, c := range AnalysisColumns() {
		cols = append(cols, SeasonAvgPrefix+c)
	}
	return cols
}

// columnValue resolves one distribution column against an averages row
func columnValue(row *AveragesRow, col string) float64 {
	if len(col) > len(SeasonAvgPrefix) && col[:len(SeasonAvgPrefix)] == SeasonAvgPrefix {
		return row.SeasonAvg[col[len(SeasonAvgPrefix):]]
	}
	return row.Raw[col]
}

// quantile returns the p-quantile of an ascending-sorted sample using
// linear interpolation between closest ranks
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// summarize reduces one sample to the six stored summary points
func summarize(sample []float64) (mean, min, q25, q50, q75, max float64, err error) {
	if len(sample) == 0 {
		return 0, 0, 0, 0, 0, 0, fmt.Errorf("cannot summarise an empty sample")
	}
	data := stats.Float64Data(sample)
	if mean, err = stats.Mean(data); err != nil {
		return
	}
	if min, err = stats.Min(data); err != nil {
		return
	}
	if max, err = stats.Max(data); err != nil {
		return
	}
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)
	q25 = quantile(sorted, 0.25)
	q50 = quantile(sorted, 0.50)
	q75 = quantile(sorted, 0.75)
	return
}

// gameSide keys one side of one game
type gameSide struct {
	GameID   string
	HomeGame int
}

// SummarizeSides reduces player averages rows to distribution rows, one per
// (game, side, statistic). A side with no player rows produces nothing.
func SummarizeSides(rows []*AveragesRow) ([]*StatDistribution, error) {
	sides := make(map[gameSide][]*AveragesRow)
	for _, r := range rows {
		k := gameSide{GameID: r.GameID, HomeGame: r.HomeGame}
		sides[k] = append(sides[k], r)
	}

	cols := DistributionColumns()
	out := make([]*StatDistribution, 0, len(sides)*len(cols))
	for k, sideRows := range sides {
		for _, col := range cols {
			sample := make([]float64, 0, len(sideRows))
			for _, r := range sideRows {
				sample = append(sample, columnValue(r, col))
			}
			mean, min, q25, q50, q75, max, err := summarize(sample)
			if err != nil {
				return nil, fmt.Errorf("game %s side %d stat %s: %w", k.GameID, k.HomeGame, col, err)
			}
			out = append(out, &StatDistribution{
				GameID:   k.GameID,
				HomeGame: k.HomeGame,
				Stat:     col,
				Win:      sideRows[0].Win,
				Mean:     mean,
				Min:      min,
				Q25:      q25,
				Q50:      q50,
				Q75:      q75,
				Max:      max,
			})
		}
	}
	return out, nil
}

// summarisedGameIDs returns the game ids already present in the
// distribution ledger
func summarisedGameIDs() (map[string]bool, error) {
	db, err := GetDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query("SELECT DISTINCT game_id FROM stat_distributions")
	if err != nil {
		return nil, fmt.Errorf("failed to query summarised game ids: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		done[id] = true
	}
	return done, rows.Err()
}

// UpdatePlayerDistributions appends distribution rows for every game in the
// player table not yet in the ledger. Averages are always refolded over the
// full history, only the final summaries are skipped for known games, so a
// rerun with no new games leaves the ledger unchanged.
func UpdatePlayerDistributions() error {
	raw, err := FindAll(&PlayerGame{})
	if err != nil {
		return fmt.Errorf("failed to load player games: %w", err)
	}
	logs := make([]*GameLog, 0, len(raw))
	for _, r := range raw {
		logs = append(logs, r.(*PlayerGame).Log())
	}
	if len(logs) == 0 {
		logger.Info("No player games to summarise")
		return nil
	}

	done, err := summarisedGameIDs()
	if err != nil {
		return err
	}

	rows := SeasonAverages(logs)
	pending := make([]*AveragesRow, 0, len(rows))
	for _, r := range rows {
		if !done[r.GameID] {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		logger.Info("Distributions already up to date")
		return nil
	}

	dists, err := SummarizeSides(pending)
	if err != nil {
		return err
	}

	persist := make([]Persistable, len(dists))
	for i, d := range dists {
		persist[i] = d
	}
	if err := BulkSave(persist); err != nil {
		return fmt.Errorf("failed to save distributions: %w", err)
	}
	logger.Info("Saved stat distributions", len(dists))
	return nil
}
