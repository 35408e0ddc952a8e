package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/antigravity/raptor-transit/internal/raptor"
	"github.com/antigravity/raptor-transit/internal/timetable"
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Find the fastest journey between two sets of stops",
	RunE:  runRoute,
}

var (
	routeOrigins        string
	routeDestinations   string
	routeDate           string
	routeSpecifiedSecs  int
	routeTransfersLimit int
	routeReverse        bool
	routeGeoJSON        bool
)

func init() {
	routeCmd.Flags().StringVar(&routeOrigins, "origin", "", "comma-separated origin stop ids")
	routeCmd.Flags().StringVar(&routeDestinations, "destination", "", "comma-separated destination stop ids")
	routeCmd.Flags().StringVar(&routeDate, "date", time.Now().Format("2006-01-02"), "service date, YYYY-MM-DD")
	routeCmd.Flags().IntVar(&routeSpecifiedSecs, "secs", 0, "seconds since midnight: departure time (forward) or latest arrival (reverse)")
	routeCmd.Flags().IntVar(&routeTransfersLimit, "transfers", 4, "maximum number of transfers")
	routeCmd.Flags().BoolVar(&routeReverse, "reverse", false, "run a reverse (latest-arrival) search")
	routeCmd.Flags().BoolVar(&routeGeoJSON, "geojson", false, "print the result as a GeoJSON LineString instead of raw JSON")
	routeCmd.MarkFlagRequired("origin")
	routeCmd.MarkFlagRequired("destination")
}

func runRoute(cmd *cobra.Command, args []string) error {
	origins := splitIDs(routeOrigins)
	destinations := splitIDs(routeDestinations)

	date, err := time.Parse("2006-01-02", routeDate)
	if err != nil {
		return fmt.Errorf("invalid --date %q: %w", routeDate, err)
	}

	tt, err := loadTimetable(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading timetable: %w", err)
	}

	search := raptor.New(tt)
	journey, err := search.PointToPoint(raptor.Query{
		OriginStopIDs:      origins,
		DestinationStopIDs: destinations,
		Date:               date,
		SpecifiedSecs:      routeSpecifiedSecs,
		TransfersLimit:     routeTransfersLimit,
		Reverse:            routeReverse,
	})
	if err != nil {
		return err
	}
	if journey == nil {
		fmt.Println("no journey found")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if routeGeoJSON {
		return enc.Encode(journey.GeoJSON(tt))
	}
	return enc.Encode(journey)
}

func splitIDs(v string) []timetable.StopID {
	var out []timetable.StopID
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, timetable.StopID(p))
		}
	}
	return out
}
