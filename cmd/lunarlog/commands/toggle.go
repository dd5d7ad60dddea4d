package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lunarlog/cycle-engine/cycle"
)

func newToggleCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Start, end or resume the period",
		Long: `Toggle the period for today (or --date):
  - no ongoing period: start one today
  - ongoing period: end it today
  - period ended today: resume it`,
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

			out, err := cycle.NewRepository(store).TogglePeriod(cmd.Context(), day)
			if err != nil {
				return err
			}

			log.Debug().Str("result", string(out.Result)).Int64("id", out.Cycle.ID).Msg("Toggled period")
			fmt.Fprintln(cmd.OutOrStdout(), out.Result.Message())
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to toggle on, YYYY-MM-DD (default today)")

	return cmd
}

func dayFlag(s string) (cycle.Day, error) {
	if s == "" {
		return cycle.Today(), nil
	}
	return cycle.ParseDay(s)
}
