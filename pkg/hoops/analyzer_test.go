package hoops

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportTrainingTable(t *testing.T) {
	table := AssembleTrainingTable(SeasonAverages(twoTeamSeason()), twoTeamSeasonDists(t))
	require.Len(t, table, 1)

	path := filepath.Join(t.TempDir(), "training.csv")
	require.NoError(t, NewAnalyzer().ExportTrainingTable(table, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	assert.Equal(t, "GAME_ID", header[0])
	assert.Equal(t, "HOME_WIN", header[len(header)-1])
	// Identity columns, both feature blocks, label
	assert.Len(t, header, 3+2*len(FeatureColumns())+1)

	row := records[1]
	assert.Equal(t, "002", row[0])
	assert.Equal(t, "1", row[len(row)-1])
}
