// cmd/aptdat/report.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/mmp/xpapt/aptdat"
	"github.com/mmp/xpapt/math"
	"github.com/mmp/xpapt/util"

	"github.com/goforj/godump"
	"github.com/iancoleman/orderedmap"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

func reportAirport(ap *aptdat.Airport, head int) error {
	s, err := ap.Summarize()
	if err != nil {
		return err
	}

	if *jsonOutput {
		return printJSON([]aptdat.Summary{s})
	}
	if *dumpSummary {
		godump.Dump(s)
		return nil
	}

	fmt.Printf("%s: %s (%s, version %d)\n", s.Id, util.StopShouting(s.Name), s.FromFile, s.Version)
	fmt.Printf("  elevation %.0f ft, ATC %v, %d records\n", s.Elevation, s.HasATC, s.Records)
	if s.HasLocation {
		fmt.Printf("  location %s %s\n", s.Location.DDString(), s.Location.DMSString())
	}
	for _, k := range util.SortedMapKeys(s.Metadata) {
		fmt.Printf("  %s: %s\n", k, s.Metadata[k])
	}
	fmt.Printf("  capabilities: %s\n", capabilityString(s))
	if head > 0 {
		fmt.Println(ap.Head(head))
	}
	return nil
}

func capabilityString(s aptdat.Summary) string {
	caps := []struct {
		has  bool
		name string
	}{
		{s.HasTaxiway, "taxiway"},
		{s.HasTaxiRoute, "taxi-route"},
		{s.HasTrafficFlow, "traffic-flow"},
		{s.HasGroundRoutes, "ground-routes"},
		{s.HasTaxiwaySign, "signs"},
		{s.HasCommFreq, "comm"},
	}
	var str []string
	for _, c := range caps {
		if c.has {
			str = append(str, c.name)
		}
	}
	if len(str) == 0 {
		return "none"
	}
	return fmt.Sprint(str)
}

func reportTaxiRoutes(ap *aptdat.Airport) error {
	g, err := ap.TaxiRouteGraph()
	if err != nil {
		return err
	}
	id, _ := ap.Id()

	fmt.Printf("%s: %d taxi route nodes, %d edges\n", id, len(g.Nodes), len(g.Edges))
	if len(g.Nodes) > 0 {
		b := g.Bounds()
		fmt.Printf("  bounds %s - %s\n", b.P0.DDString(), b.P1.DDString())
	}

	var total float64
	widths := make(map[aptdat.WidthClass]int)
	var oneWay, runway, active int
	for _, e := range g.Edges {
		if l, ok := g.EdgeLength(e); ok {
			total += l
		}
		widths[e.Width]++
		if e.OneWay {
			oneWay++
		}
		if e.Runway {
			runway++
		}
		if len(e.ActiveZones) > 0 {
			active++
		}
	}
	fmt.Printf("  total length %.2f nm (%.0f ft), %d one-way, %d runway, %d in active zones\n", total,
		total*math.NauticalMilesToFeet, oneWay, runway, active)
	for _, w := range util.SortedMapKeys(widths) {
		fmt.Printf("  width %s: %d edges\n", w, widths[w])
	}

	for _, err := range g.Validate() {
		fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
	}
	return nil
}

func summaryJSON(s aptdat.Summary) *orderedmap.OrderedMap {
	o := orderedmap.New()
	o.Set("id", s.Id)
	o.Set("name", s.Name)
	o.Set("elevation", s.Elevation)
	o.Set("atc", s.HasATC)
	if s.HasLocation {
		o.Set("latitude", s.Location.Latitude())
		o.Set("longitude", s.Location.Longitude())
	}

	md := orderedmap.New()
	for _, k := range util.SortedMapKeys(s.Metadata) {
		md.Set(string(k), s.Metadata[k])
	}
	o.Set("metadata", md)

	o.Set("taxiway", s.HasTaxiway)
	o.Set("taxiRoute", s.HasTaxiRoute)
	o.Set("trafficFlow", s.HasTrafficFlow)
	o.Set("groundRoutes", s.HasGroundRoutes)
	o.Set("taxiwaySign", s.HasTaxiwaySign)
	o.Set("commFreq", s.HasCommFreq)
	o.Set("records", s.Records)
	o.Set("file", s.FromFile)
	o.Set("version", s.Version)
	return o
}

func writeJSON(w io.Writer, sums []aptdat.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(util.MapSlice(sums, summaryJSON))
}

func printJSON(sums []aptdat.Summary) error {
	return writeJSON(os.Stdout, sums)
}

type stats struct {
	Airports     int
	WithLocation int
	Capabilities map[string]int
	RowCodes     map[aptdat.RowCode]int
	Countries    map[string]int
}

func collectStats(ad *aptdat.AptDat, sums []aptdat.Summary) stats {
	st := stats{
		Airports:     ad.Len(),
		Capabilities: make(map[string]int),
		RowCodes:     make(map[aptdat.RowCode]int),
		Countries:    make(map[string]int),
	}

	for _, s := range sums {
		if s.HasLocation {
			st.WithLocation++
		}
		for _, c := range []struct {
			has  bool
			name string
		}{
			{s.HasATC, "atc"},
			{s.HasTaxiway, "taxiway"},
			{s.HasTaxiRoute, "taxi-route"},
			{s.HasTrafficFlow, "traffic-flow"},
			{s.HasGroundRoutes, "ground-routes"},
			{s.HasTaxiwaySign, "signs"},
			{s.HasCommFreq, "comm"},
		} {
			if c.has {
				st.Capabilities[c.name]++
			}
		}
		if c, ok := s.Metadata[aptdat.MetadataCountry]; ok {
			st.Countries[c]++
		}
	}

	for _, ap := range ad.Airports {
		for _, l := range ap.Lines() {
			st.RowCodes[l.Code]++
		}
	}
	return st
}

func reportStats(ad *aptdat.AptDat, sums []aptdat.Summary) {
	st := collectStats(ad, sums)

	fmt.Printf("%d airports, %d with a location\n", st.Airports, st.WithLocation)
	for _, c := range util.SortedMapKeys(st.Capabilities) {
		fmt.Printf("  %-14s %d\n", c, st.Capabilities[c])
	}

	codes := util.SortedMapKeys(st.RowCodes)
	slices.SortStableFunc(codes, func(a, b aptdat.RowCode) int { return st.RowCodes[b] - st.RowCodes[a] })
	fmt.Printf("Most common records:\n")
	for _, c := range codes[:min(10, len(codes))] {
		fmt.Printf("  %-6d %d\n", c, st.RowCodes[c])
	}

	countries := util.SortedMapKeys(st.Countries)
	slices.SortStableFunc(countries, func(a, b string) int { return st.Countries[b] - st.Countries[a] })
	if len(countries) > 0 {
		fmt.Printf("Countries:\n")
		for _, c := range countries[:min(10, len(countries))] {
			fmt.Printf("  %-24s %d\n", c, st.Countries[c])
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Printf("Airports: %s in memory\n", util.ByteCount(util.SizeOf(ad)))
	fmt.Printf("Heap: %s allocated, %d GCs\n", util.ByteCount(int64(m.HeapAlloc)), m.NumGC)

	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Printf("System memory: %s used of %s (%.1f%%)\n", util.ByteCount(int64(vm.Used)),
			util.ByteCount(int64(vm.Total)), vm.UsedPercent)
	}
	if pct, err := cpu.Percent(250*time.Millisecond, false); err == nil && len(pct) > 0 {
		fmt.Printf("CPU: %.1f%%\n", pct[0])
	}
}
