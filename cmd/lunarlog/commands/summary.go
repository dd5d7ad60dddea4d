package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lunarlog/cycle-engine/api"
	"github.com/lunarlog/cycle-engine/prediction"
)

func newSummaryCommand() *cobra.Command {
	var (
		date       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the current cycle summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			day, err := dayFlag(date)
			if err != nil {
				return err
			}

			cycles, err := store.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			s := prediction.Summarize(cycles, day)

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(api.NewSummaryDTO(s))
			}

			fmt.Fprint(out, s.ShareableStatus())
			if s.HasData {
				fmt.Fprintf(out, "\nNext period:    %s\n", s.Forecast.NextPeriod)
				fmt.Fprintf(out, "Ovulation:      %s\n", s.Forecast.Ovulation)
				fmt.Fprintf(out, "Fertile window: %s to %s\n", s.Forecast.Fertile.Start, s.Forecast.Fertile.End)
			}
			for _, a := range s.Anomalies {
				fmt.Fprintf(out, "! %s\n", a.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to summarise, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}
