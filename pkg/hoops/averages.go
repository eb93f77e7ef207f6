package hoops

import (
	"sort"
	"time"
)

// SeasonAvgPrefix marks the season-cumulative form of an analysis column
const SeasonAvgPrefix = "SEASON_AVG_"

// AnalysisColumns returns the per-game values carried through feature
// derivation: the win flag, the box-score statistics and rest days
func AnalysisColumns() []string {
	cols := make([]string, 0, len(statNames)+2)
	cols = append(cols, "WL")
	cols = append(cols, statNames...)
	cols = append(cols, "REST_DAYS")
	return cols
}

// AveragesRow is one entity's game annotated with its season-to-date
// averages. Raw holds the game's own values, SeasonAvg the running mean of
// each column over the entity's season up to and including this game.
type AveragesRow struct {
	EntityID   string
	TeamAbbrev string
	SeasonYear string
	GameID     string
	GameDate   time.Time
	Matchup    string
	HomeGame   int
	Win        float64
	Raw        map[string]float64
	SeasonAvg  map[string]float64
}

// seasonAccumulator folds one entity-season's running sums
type seasonAccumulator struct {
	count float64
	sums  map[string]float64
}

func newSeasonAccumulator(cols []string) *seasonAccumulator {
	return &seasonAccumulator{sums: make(map[string]float64, len(cols))}
}

func (a *seasonAccumulator) add(raw map[string]float64) map[string]float64 {
	a.count++
	avg := make(map[string]float64, len(raw))
	for col, v := range raw {
		a.sums[col] += v
		avg[col] = a.sums[col] / a.count
	}
	return avg
}

// SeasonAverages annotates every game log with season-to-date averages.
// Logs are grouped per entity and walked in date order; the first row of a
// season restarts the average at the raw values. Rest days are counted
// against the entity's previous game regardless of season, zero for the
// entity's first recorded game.
func SeasonAverages(logs []*GameLog) []*AveragesRow {
	byEntity := make(map[string][]*GameLog)
	for _, g := range logs {
		byEntity[g.EntityID] = append(byEntity[g.EntityID], g)
	}

	entityIDs := make([]string, 0, len(byEntity))
	for id := range byEntity {
		entityIDs = append(entityIDs, id)
	}
	sort.Strings(entityIDs)

	cols := AnalysisColumns()
	var out []*AveragesRow
	for _, id := range entityIDs {
		out = append(out, entitySeasonAverages(byEntity[id], cols)...)
	}
	return out
}

func entitySeasonAverages(logs []*GameLog, cols []string) []*AveragesRow {
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].GameDate.Equal(logs[j].GameDate) {
			return logs[i].GameDate.Before(logs[j].GameDate)
		}
		return logs[i].GameID < logs[j].GameID
	})

	accs := make(map[string]*seasonAccumulator)
	rows := make([]*AveragesRow, 0, len(logs))
	var prevDate time.Time

	for i, g := range logs {
		restDays := 0.0
		if i > 0 {
			restDays = calendarDays(prevDate, g.GameDate)
		}
		prevDate = g.GameDate

		raw := rawValues(g, restDays)
		year := g.SeasonYear()
		acc, ok := accs[year]
		if !ok {
			acc = newSeasonAccumulator(cols)
			accs[year] = acc
		}

		rows = append(rows, &AveragesRow{
			EntityID:   g.EntityID,
			TeamAbbrev: g.TeamAbbrev,
			SeasonYear: year,
			GameID:     g.GameID,
			GameDate:   g.GameDate,
			Matchup:    g.Matchup,
			HomeGame:   g.HomeGame(),
			Win:        g.Win(),
			Raw:        raw,
			SeasonAvg:  acc.add(raw),
		})
	}
	return rows
}

func rawValues(g *GameLog, restDays float64) map[string]float64 {
	raw := make(map[string]float64, len(statNames)+2)
	raw["WL"] = g.Win()
	for i, v := range g.Vector() {
		raw[statNames[i]] = v
	}
	raw["REST_DAYS"] = restDays
	return raw
}

func calendarDays(from, to time.Time) float64 {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return b.Sub(a).Hours() / 24
}
