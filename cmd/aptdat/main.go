// cmd/aptdat/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// aptdat loads X-Plane apt.dat files, reports on the airports they
// contain and optionally writes them back out or indexes them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/mmp/xpapt/aptdat"
	"github.com/mmp/xpapt/catalog"
	"github.com/mmp/xpapt/config"
	"github.com/mmp/xpapt/gateway"
	"github.com/mmp/xpapt/log"
	"github.com/mmp/xpapt/storage"
	"github.com/mmp/xpapt/util"

	"github.com/apenwarr/fixconsole"
)

var (
	configFile  = flag.String("config", "xpapt.yml", "YAML configuration file")
	logLevel    = flag.String("loglevel", "", "logging level: debug, info, warn, error (overrides config)")
	logDir      = flag.String("logdir", "", "log file directory (overrides config)")
	airportId   = flag.String("airport", "", "print the records and summary of the given airport")
	searchName  = flag.String("search", "", "list the airports with the given name")
	graphId     = flag.String("graph", "", "report on the taxi route network of the given airport")
	jsonOutput  = flag.Bool("json", false, "print airport summaries as JSON")
	dumpSummary = flag.Bool("dump", false, "dump the complete summary of the airport given with -airport")
	showStats   = flag.Bool("stats", false, "print statistics about the loaded airports")
	writeFile   = flag.String("write", "", "write the airports to the given .dat or .dat.zst file or gs:// object")
	sortAirport = flag.Bool("sort", false, "sort the airports by name")
	catalogPath = flag.String("catalog", "", "add the airports to the SQLite catalog at the given path")
	indexPath   = flag.String("index", "", "store a msgpack index of airport summaries at the given path or gs:// object")
	gatewayId   = flag.String("gateway", "", "download the gateway's recommended scenery pack for the given airport")
	headLines   = flag.Int("head", 20, "number of records to print with -airport")
	nearId      = flag.String("near", "", "list the airports near the given airport (uses the -catalog database if given)")
	nearRadius  = flag.Float64("radius", 10, "search radius in nautical miles for -near")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: aptdat [flags] [apt.dat ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logDir != "" {
		cfg.Log.Dir = *logDir
	}

	lg := log.New(cfg.Log.Level, cfg.Log.Dir)
	defer lg.CatchAndReportCrash()

	if err := util.CacheCullObjects(256 * 1024 * 1024); err != nil {
		lg.Warnf("culling cache: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cfg, flag.Args(), lg); err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, paths []string, lg *log.Logger) error {
	if *gatewayId != "" {
		if err := reportGatewayPack(ctx, cfg, *gatewayId, lg); err != nil {
			return err
		}
	}

	if len(paths) == 0 {
		if *nearId != "" && *catalogPath != "" {
			return reportNear(ctx, nil, nil, lg)
		}
		if *gatewayId == "" {
			flag.Usage()
		}
		return nil
	}

	ad, err := loadAptDat(ctx, cfg, paths, lg)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d airports (version %d)", ad.Len(), ad.Version)
	if ad.Orphans > 0 {
		fmt.Printf(", discarded %d records outside of airports", ad.Orphans)
	}
	fmt.Println()

	if *sortAirport {
		ad.Sort()
	}

	if *searchName != "" {
		for _, ap := range ad.SearchByName(*searchName) {
			id, _ := ap.Id()
			name, _ := ap.Name()
			fmt.Printf("%s\t%s\t%s\n", id, util.StopShouting(name), ap.FromFile())
		}
	}

	if *airportId != "" {
		ap, err := ad.Lookup(*airportId)
		if err != nil {
			return err
		}
		if err := reportAirport(ap, *headLines); err != nil {
			return err
		}
	}

	if *graphId != "" {
		ap, err := ad.Lookup(*graphId)
		if err != nil {
			return err
		}
		if err := reportTaxiRoutes(ap); err != nil {
			return err
		}
	}

	var sums []aptdat.Summary
	if *showStats || *catalogPath != "" || *indexPath != "" || *nearId != "" || (*jsonOutput && *airportId == "") {
		var e util.ErrorLogger
		sums = ad.Summaries(&e)
		if e.HaveErrors() {
			e.PrintErrors(lg)
		}
	}

	if *jsonOutput && *airportId == "" {
		if err := printJSON(sums); err != nil {
			return err
		}
	}

	if *showStats {
		reportStats(ad, sums)
	}

	if *catalogPath != "" {
		if err := exportCatalog(ctx, *catalogPath, sums, lg); err != nil {
			return err
		}
	}

	if *nearId != "" {
		if err := reportNear(ctx, ad, sums, lg); err != nil {
			return err
		}
	}

	if *indexPath != "" {
		location, obj := storage.SplitURL(*indexPath)
		b, err := storage.Open(ctx, location, cfg.Storage.CredentialsEnv, lg)
		if err != nil {
			return err
		}
		defer b.Close()

		n, err := storage.StoreSummaries(ctx, b, obj, sums)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d summaries to %s (%d bytes)\n", len(sums), *indexPath, n)
	}

	if *writeFile != "" {
		if err := writeAptDat(ctx, cfg, ad, *writeFile, lg); err != nil {
			return err
		}
	}

	return nil
}

// loadAptDat loads all of the given files, which may be local or in GCS,
// and returns their airports in order.
func loadAptDat(ctx context.Context, cfg config.Config, paths []string, lg *log.Logger) (*aptdat.AptDat, error) {
	isRemote := func(p string) bool { return strings.HasPrefix(p, "gs://") }
	if !slices.ContainsFunc(paths, isRemote) {
		return aptdat.LoadFiles(ctx, paths, lg)
	}

	var ad *aptdat.AptDat
	for _, path := range paths {
		var cur *aptdat.AptDat
		var err error
		if isRemote(path) {
			cur, err = loadRemote(ctx, cfg, path, lg)
		} else {
			cur, err = aptdat.Load(path, lg)
		}
		if err != nil {
			return nil, err
		}

		if ad == nil {
			ad = cur
		} else {
			ad.Extend(cur)
			ad.Orphans += cur.Orphans
			ad.Path = ""
		}
	}
	return ad, nil
}

func loadRemote(ctx context.Context, cfg config.Config, path string, lg *log.Logger) (*aptdat.AptDat, error) {
	location, obj := storage.SplitURL(path)
	b, err := storage.Open(ctx, location, cfg.Storage.CredentialsEnv, lg)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	return storage.LoadAptDat(ctx, b, obj, lg)
}

func writeAptDat(ctx context.Context, cfg config.Config, ad *aptdat.AptDat, path string, lg *log.Logger) error {
	if !strings.HasPrefix(path, "gs://") {
		if err := ad.WriteFile(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %d airports to %s\n", ad.Len(), path)
		return nil
	}

	location, obj := storage.SplitURL(path)
	b, err := storage.Open(ctx, location, cfg.Storage.CredentialsEnv, lg)
	if err != nil {
		return err
	}
	defer b.Close()

	n, err := storage.StoreAptDat(ctx, b, obj, ad)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d airports to %s (%d bytes)\n", ad.Len(), path, n)
	return nil
}

func exportCatalog(ctx context.Context, path string, sums []aptdat.Summary, lg *log.Logger) error {
	c, err := catalog.Open(ctx, path, lg)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Insert(ctx, sums); err != nil {
		return err
	}
	n, err := c.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Catalog %s now has %d airports\n", path, n)
	return nil
}

// reportNear lists the airports around the one given with -near.
func reportNear(ctx context.Context, ad *aptdat.AptDat, sums []aptdat.Summary, lg *log.Logger) error {
	center, near, err := nearAirports(ctx, *nearId, *nearRadius, *catalogPath, ad, sums, lg)
	if err != nil {
		return err
	}

	fmt.Printf("%d airports within %.1f nm of %s\n", len(near), *nearRadius, center.Id)
	for _, n := range near {
		if n.Id == center.Id {
			continue
		}
		fmt.Printf("  %-7s %-40s %6.1f nm %03.0f\n", n.Id, util.StopShouting(n.Name), n.Distance, n.Heading)
	}
	return nil
}

// nearAirports finds the airports within radius nm of the airport id,
// using the catalog at catalogPath if one is given and otherwise the
// loaded airports and their summaries.
func nearAirports(ctx context.Context, id string, radius float64, catalogPath string, ad *aptdat.AptDat,
	sums []aptdat.Summary, lg *log.Logger) (aptdat.Summary, []catalog.Neighbor, error) {
	if catalogPath != "" {
		c, err := catalog.Open(ctx, catalogPath, lg)
		if err != nil {
			return aptdat.Summary{}, nil, err
		}
		defer c.Close()

		center, err := c.Lookup(ctx, id)
		if err != nil {
			return aptdat.Summary{}, nil, err
		}
		if !center.HasLocation {
			return center, nil, fmt.Errorf("%s: %w", id, aptdat.ErrNoRunway)
		}
		near, err := c.Near(ctx, center.Location, radius)
		return center, near, err
	}

	ap, err := ad.Lookup(id)
	if err != nil {
		return aptdat.Summary{}, nil, err
	}
	center, err := ap.Summarize()
	if err != nil {
		return center, nil, err
	}
	if !center.HasLocation {
		return center, nil, fmt.Errorf("%s: %w", id, aptdat.ErrNoRunway)
	}
	return center, catalog.Nearby(sums, center.Location, radius), nil
}

func reportGatewayPack(ctx context.Context, cfg config.Config, id string, lg *log.Logger) error {
	c := gateway.NewClient(cfg.Gateway, lg)
	pack, err := c.RecommendedPack(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Scenery pack %d for %s (%s) uploaded by %s on %s\n", pack.Info.SceneryId, pack.Info.ICAO,
		pack.Info.Type, pack.Info.UserName, pack.Info.DateUploaded)
	fmt.Printf("Features: %v\n", pack.Features)
	if pack.HasDSF {
		fmt.Printf("DSF: %d bytes\n", len(pack.DSF))
	}
	return reportAirport(pack.Airport, *headLines)
}
