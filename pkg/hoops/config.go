package hoops

import (
	"fmt"
	"path/filepath"
)

// HoopsConfig contains all configurable parameters for the ingest and
// feature-derivation pipeline
// This centralizes paths, endpoints and column policy for easy adjustment
type HoopsConfig struct {
	// Database and cache parameters
	AssetsPath string // The base directory of assets relating to courtline
	CachePath  string // The location in which cached downloaded data is stored
	DbPath     string // The location of the courtline sqlite database

	// === REMOTE STATISTICS SOURCE ===

	StatsBaseURL string // Base URL of the NBA stats API
	TeamIndexURL string // Page scraped for the active-team directory

	// Game-finder, box-score and player-game-log endpoint templates
	GameFinderURL    string
	BoxScoreURL      string
	PlayerGameLogURL string

	// === COLUMN POLICY ===

	// Source columns discarded at fetch time. Shot percentages and total
	// rebounds are reconstructable from makes/attempts and OREB+DREB,
	// minutes played is noisy across overtime games.
	DroppedColumns []string

	// === SEASONS ===

	CurrentSeason string // e.g. "2025-26", used to invalidate stale caches
}

// DefaultHoopsConfig returns the default configuration with all standard values
func DefaultHoopsConfig() *HoopsConfig {
	assetsPath := "/var/lib/courtline/"
	statsBase := "https://stats.nba.com/stats"
	config := &HoopsConfig{
		AssetsPath: assetsPath,
		CachePath:  filepath.Join(assetsPath, "cache") + "/",
		DbPath:     filepath.Join(assetsPath, "courtline.db"),

		StatsBaseURL: statsBase,
		TeamIndexURL: "https://www.nba.com/teams",

		GameFinderURL:    statsBase + "/leaguegamefinder?PlayerOrTeam=T&TeamIDNullable=%s",
		BoxScoreURL:      statsBase + "/boxscoretraditionalv2?GameID=%s&StartPeriod=0&EndPeriod=10&StartRange=0&EndRange=28800&RangeType=0",
		PlayerGameLogURL: statsBase + "/playergamelog?PlayerID=%s&Season=ALL&SeasonType=Regular%%20Season",

		DroppedColumns: []string{"FG_PCT", "FG3_PCT", "FT_PCT", "MIN", "REB", "VIDEO_AVAILABLE"},

		CurrentSeason: "2025-26",
	}

	return config
}

// Global configuration instance
var Config *HoopsConfig

// init initializes the global configuration with default values
func init() {
	Config = DefaultHoopsConfig()
}

// UpdateConfig allows updating the global configuration
func UpdateConfig(newConfig *HoopsConfig) {
	Config = newConfig
}

// SetAssetsPath points every derived path at a new base directory
func SetAssetsPath(path string) {
	Config.AssetsPath = path
	Config.CachePath = filepath.Join(path, "cache") + "/"
	Config.DbPath = filepath.Join(path, "courtline.db")
}

// === CONFIGURATION VALIDATION ===

// ValidateConfig ensures all configuration values are usable
func ValidateConfig(config *HoopsConfig) error {
	if config.AssetsPath == "" {
		return fmt.Errorf("AssetsPath must not be empty")
	}
	if config.DbPath == "" {
		return fmt.Errorf("DbPath must not be empty")
	}
	if config.StatsBaseURL == "" {
		return fmt.Errorf("StatsBaseURL must not be empty")
	}
	if len(config.DroppedColumns) == 0 {
		return fmt.Errorf("DroppedColumns must name the percentage columns discarded at fetch time")
	}
	return nil
}
