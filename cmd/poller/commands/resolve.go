package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kjstillabower/mountain-weather-poller/internal/service"
	"github.com/kjstillabower/mountain-weather-poller/internal/validation"
)

func resolveCmd() *cobra.Command {
	var (
		lat, lon string
		maxKm    float64
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the massif and department for a point",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := validation.ParseCoordinates(lat, lon)
			if err != nil {
				return err
			}
			loc := service.ResolveLocation("", p, maxKm)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(loc)
			}
			fmt.Fprintf(out, "Point:      %s\n", p)
			fmt.Fprintf(out, "Massif:     %s\n", loc.Massif)
			if loc.Massif.Found && loc.Massif.Region.NumericID != 0 {
				fmt.Fprintf(out, "BRA id:     %d\n", loc.Massif.Region.NumericID)
			}
			fmt.Fprintf(out, "Department: %s\n", loc.Department)
			if !loc.InFrance() {
				fmt.Fprintln(out, "Vigilance:  not applicable (outside France)")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lat, "lat", "", "latitude in decimal degrees")
	cmd.Flags().StringVar(&lon, "lon", "", "longitude in decimal degrees")
	cmd.Flags().Float64Var(&maxKm, "max-massif-km", 0, "nearest-massif cutoff in km (0 disables)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
