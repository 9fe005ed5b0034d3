package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/i474232898/waterwise/internal/garden"
)

func forecastCommand(rt *deps) *cobra.Command {
	var city string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the day-by-day forecast summary for a city",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := rt.weather.Forecast(cmd.Context(), city)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tRAIN %\tLOW\tHIGH\tICON")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%.1f\t%d\t%d\t%s\n",
					s.Day, s.AveragePrecipitationPercent, s.TemperatureMin, s.TemperatureMax, s.IconCode)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if garden.RainGateOpen(summaries) {
				fmt.Fprintln(cmd.OutOrStdout(), "Rain is likely today: plants can be watered by rain.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Rain is unlikely today.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&city, "city", "c", "", "City name, e.g. \"Chicago\"")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}
