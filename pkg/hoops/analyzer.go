package hoops

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/richard-senior/courtline/internal/logger"
)

// Analyzer runs feature derivation over the persisted game tables: player
// distributions first, then the labelled training table
type Analyzer struct{}

// NewAnalyzer returns an analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Run derives player distributions and the training table, writing the
// table to the assets directory
func (a *Analyzer) Run() error {
	if err := UpdatePlayerDistributions(); err != nil {
		return err
	}
	table, err := BuildTrainingTable()
	if err != nil {
		return err
	}
	return a.ExportTrainingTable(table, filepath.Join(Config.AssetsPath, "training.csv"))
}

// ExportTrainingTable writes training rows as CSV, home features prefixed
// HOME_ and away features AWAY_, label column last
func (a *Analyzer) ExportTrainingTable(table []*TrainingRow, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create training table file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := FeatureColumns()

	header := []string{"GAME_ID", "HOME_TEAM_ID", "AWAY_TEAM_ID"}
	for _, c := range cols {
		header = append(header, "HOME_"+c)
	}
	for _, c := range cols {
		header = append(header, "AWAY_"+c)
	}
	header = append(header, "HOME_WIN")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range table {
		record := []string{row.GameID, row.HomeTeamID, row.AwayTeamID}
		for _, c := range cols {
			record = append(record, formatFeature(row.HomeFeatures[c]))
		}
		for _, c := range cols {
			record = append(record, formatFeature(row.AwayFeatures[c]))
		}
		record = append(record, formatFeature(row.HomeWin))
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write training table: %w", err)
	}
	logger.Info("Wrote training table", path, len(table))
	return nil
}

func formatFeature(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
