package hoops

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/richard-senior/courtline/internal/logger"
	"github.com/richard-senior/courtline/pkg/transport"
	"github.com/richard-senior/courtline/pkg/util"
)

// Team identifies one currently active franchise
type Team struct {
	ID     string `json:"id"`
	Abbrev string `json:"abbrev"`
	Name   string `json:"name"`
}

// activeTeams is the compiled-in directory of the thirty current franchises,
// used whenever the remote team index cannot be scraped
var activeTeams = []*Team{
	{ID: "1610612737", Abbrev: "ATL", Name: "Atlanta Hawks"},
	{ID: "1610612738", Abbrev: "BOS", Name: "Boston Celtics"},
	{ID: "1610612751", Abbrev: "BKN", Name: "Brooklyn Nets"},
	{ID: "1610612766", Abbrev: "CHA", Name: "Charlotte Hornets"},
	{ID: "1610612741", Abbrev: "CHI", Name: "Chicago Bulls"},
	{ID: "1610612739", Abbrev: "CLE", Name: "Cleveland Cavaliers"},
	{ID: "1610612742", Abbrev: "DAL", Name: "Dallas Mavericks"},
	{ID: "1610612743", Abbrev: "DEN", Name: "Denver Nuggets"},
	{ID: "1610612765", Abbrev: "DET", Name: "Detroit Pistons"},
	{ID: "1610612744", Abbrev: "GSW", Name: "Golden State Warriors"},
	{ID: "1610612745", Abbrev: "HOU", Name: "Houston Rockets"},
	{ID: "1610612754", Abbrev: "IND", Name: "Indiana Pacers"},
	{ID: "1610612746", Abbrev: "LAC", Name: "LA Clippers"},
	{ID: "1610612747", Abbrev: "LAL", Name: "Los Angeles Lakers"},
	{ID: "1610612763", Abbrev: "MEM", Name: "Memphis Grizzlies"},
	{ID: "1610612748", Abbrev: "MIA", Name: "Miami Heat"},
	{ID: "1610612749", Abbrev: "MIL", Name: "Milwaukee Bucks"},
	{ID: "1610612750", Abbrev: "MIN", Name: "Minnesota Timberwolves"},
	{ID: "1610612740", Abbrev: "NOP", Name: "New Orleans Pelicans"},
	{ID: "1610612752", Abbrev: "NYK", Name: "New York Knicks"},
	{ID: "1610612760", Abbrev: "OKC", Name: "Oklahoma City Thunder"},
	{ID: "1610612753", Abbrev: "ORL", Name: "Orlando Magic"},
	{ID: "1610612755", Abbrev: "PHI", Name: "Philadelphia 76ers"},
	{ID: "1610612756", Abbrev: "PHX", Name: "Phoenix Suns"},
	{ID: "1610612757", Abbrev: "POR", Name: "Portland Trail Blazers"},
	{ID: "1610612758", Abbrev: "SAC", Name: "Sacramento Kings"},
	{ID: "1610612759", Abbrev: "SAS", Name: "San Antonio Spurs"},
	{ID: "1610612761", Abbrev: "TOR", Name: "Toronto Raptors"},
	{ID: "1610612762", Abbrev: "UTA", Name: "Utah Jazz"},
	{ID: "1610612764", Abbrev: "WAS", Name: "Washington Wizards"},
}

// ActiveTeams returns the directory of active teams. A previously scraped
// directory cached on disk takes precedence over the compiled-in table.
func ActiveTeams() []*Team {
	cached, err := loadTeamDirectoryCache()
	if err == nil && len(cached) > 0 {
		return cached
	}
	return activeTeams
}

func teamDirectoryCachePath() string {
	return Config.CachePath + "team-directory.json"
}

func loadTeamDirectoryCache() ([]*Team, error) {
	data, err := os.ReadFile(teamDirectoryCachePath())
	if err != nil {
		return nil, err
	}
	var teams []*Team
	if err := json.Unmarshal(data, &teams); err != nil {
		return nil, fmt.Errorf("error unmarshaling team directory cache: %w", err)
	}
	return teams, nil
}

// RefreshTeamDirectory scrapes the public team index page and caches the
// result. Falls back to the compiled-in table when the scrape fails, so the
// pipeline keeps working offline.
func RefreshTeamDirectory() ([]*Team, error) {
	teams, err := scrapeTeamDirectory()
	if err != nil {
		logger.Warn("Falling back to compiled-in team directory", err)
		return activeTeams, nil
	}
	if err := writeTeamDirectoryCache(teams); err != nil {
		logger.Warn("Failed to write team directory cache", err)
	}
	return teams, nil
}

func writeTeamDirectoryCache(teams []*Team) error {
	if err := os.MkdirAll(Config.CachePath, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(teams, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling team directory: %w", err)
	}
	return os.WriteFile(teamDirectoryCachePath(), data, 0644)
}

// scrapeTeamDirectory pulls the team list out of the JSON blob embedded in
// the team index page
func scrapeTeamDirectory() ([]*Team, error) {
	htmlContent, err := transport.GetHtml(Config.TeamIndexURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team index: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlContent)))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}

	// Find the script tag with id "__NEXT_DATA__"
	var scriptData string
	doc.Find("script#__NEXT_DATA__").Each(func(i int, s *goquery.Selection) {
		scriptData = s.Text()
	})

	if scriptData == "" {
		return nil, fmt.Errorf("could not find __NEXT_DATA__ script tag")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(scriptData), &data); err != nil {
		return nil, fmt.Errorf("error parsing JSON data: %w", err)
	}

	teams := collectTeams(data)
	if len(teams) == 0 {
		return nil, fmt.Errorf("no teams found in team index page")
	}
	return teams, nil
}

// collectTeams walks the parsed page data for objects that look like team
// records. The page structure moves around between site releases so a walk
// is sturdier than a fixed path.
func collectTeams(node any) []*Team {
	seen := map[string]bool{}
	var teams []*Team

	var walk func(any)
	walk = func(n any) {
		switch v := n.(type) {
		case map[string]any:
			if t := teamFromNode(v); t != nil && !seen[t.ID] {
				seen[t.ID] = true
				teams = append(teams, t)
			}
			for _, child := range v {
				walk(child)
			}
		case []any:
			for _, child := range v {
				walk(child)
			}
		}
	}
	walk(node)
	return teams
}

func teamFromNode(node map[string]any) *Team {
	id, ok := node["teamId"]
	if !ok {
		return nil
	}
	abbrev, ok := node["teamAbbreviation"]
	if !ok {
		abbrev, ok = node["abbreviation"]
	}
	if !ok {
		return nil
	}

	ids, err := util.GetAsString(id)
	if err != nil {
		return nil
	}
	abbrevStr, ok := abbrev.(string)
	if !ok || abbrevStr == "" {
		return nil
	}

	name := ""
	if n, ok := node["teamName"].(string); ok {
		name = n
		if city, ok := node["teamCity"].(string); ok && city != "" {
			name = city + " " + n
		}
	}

	return &Team{ID: ids, Abbrev: abbrevStr, Name: name}
}
