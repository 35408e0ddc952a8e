package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/antigravity/raptor-transit/internal/raptor"
)

var isochroneCmd = &cobra.Command{
	Use:   "isochrone",
	Short: "List every stop reachable from a set of origins, with their time to reach",
	RunE:  runIsochrone,
}

var (
	isoOrigins        string
	isoDate           string
	isoSpecifiedSecs  int
	isoTransfersLimit int
	isoReverse        bool
)

func init() {
	isochroneCmd.Flags().StringVar(&isoOrigins, "origin", "", "comma-separated origin stop ids")
	isochroneCmd.Flags().StringVar(&isoDate, "date", time.Now().Format("2006-01-02"), "service date, YYYY-MM-DD")
	isochroneCmd.Flags().IntVar(&isoSpecifiedSecs, "secs", 0, "seconds since midnight: departure time (forward) or latest arrival (reverse)")
	isochroneCmd.Flags().IntVar(&isoTransfersLimit, "transfers", 4, "maximum number of transfers")
	isochroneCmd.Flags().BoolVar(&isoReverse, "reverse", false, "run a reverse (latest-arrival) search")
	isochroneCmd.MarkFlagRequired("origin")
}

func runIsochrone(cmd *cobra.Command, args []string) error {
	origins := splitIDs(isoOrigins)

	date, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return fmt.Errorf("invalid --date %q: %w", isoDate, err)
	}

	tt, err := loadTimetable(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading timetable: %w", err)
	}

	search := raptor.New(tt)
	entries, err := search.Isochrone(raptor.Query{
		OriginStopIDs:  origins,
		Date:           date,
		SpecifiedSecs:  isoSpecifiedSecs,
		TransfersLimit: isoTransfersLimit,
		Reverse:        isoReverse,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
