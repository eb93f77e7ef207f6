package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/richard-senior/courtline/internal/logger"
	"github.com/richard-senior/courtline/pkg/hoops"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: courtline [flags] <command>

Commands:
  feed      refresh team games and expand player data
  analyze   derive distributions and the training table
  run       feed then analyze

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	assets := flag.String("assets", "", "base directory for the database and caches")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = usage
	flag.Parse()

	logger.SetLogOutput('b')
	if *debug {
		logger.SetLevel(logger.DEBUG)
	}
	if *assets != "" {
		hoops.SetAssetsPath(*assets)
	}
	if err := hoops.ValidateConfig(hoops.Config); err != nil {
		logger.Fatal("Invalid configuration", err)
	}

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	if err := hoops.InitDatabase(hoops.Config.DbPath); err != nil {
		logger.Fatal("Failed to open database", err)
	}
	defer hoops.CloseDatabase()

	var err error
	switch flag.Arg(0) {
	case "feed":
		err = hoops.NewDataFeed().Run()
	case "analyze":
		err = hoops.NewAnalyzer().Run()
	case "run":
		if err = hoops.NewDataFeed().Run(); err == nil {
			err = hoops.NewAnalyzer().Run()
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("Command failed", err)
	}
	logger.Info("Done")
}
