package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lunarlog/cycle-engine/backup"
)

func newExportCommand() *cobra.Command {
	var (
		outFile string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all cycles to a backup",
		Example: `  # JSON to stdout
  lunarlog export

  # YAML file
  lunarlog export --format yaml --out cycles.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := resolveFormat(format, outFile)
			if err != nil {
				return err
			}

			data, err := backup.Export(cmd.Context(), store, f, time.Now())
			if err != nil {
				return err
			}

			if outFile == "" || outFile == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outFile, data, 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}

			log.Info().Str("out", outFile).Str("format", string(f)).Msg("Backup written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from file extension, else json)")

	return cmd
}

func newImportCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace all cycles with the contents of a backup",
		Long: `Replace every stored cycle with the cycles in FILE. The import is
all-or-nothing: an invalid record leaves the database untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := resolveFormat(format, args[0])
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			n, err := backup.Import(cmd.Context(), store, data, f)
			if err != nil {
				return err
			}

			log.Info().Int("cycles", n).Str("file", args[0]).Msg("Backup restored")
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d cycles\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from file extension, else json)")

	return cmd
}

// resolveFormat uses the explicit flag, else the file extension.
func resolveFormat(flag, path string) (backup.Format, error) {
	if flag != "" {
		return backup.ParseFormat(flag)
	}
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return backup.FormatYAML, nil
	default:
		return backup.FormatJSON, nil
	}
}
