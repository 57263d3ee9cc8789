package cmd

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/codehunt/internal/codecontext"
)

var digestCmd = &cobra.Command{
	Use:   "digest [roots...]",
	Short: "Print the code digest challenges are generated from",
	Long: `Extract the structural digest of the given directories and print it as
JSON. No LLM is called; useful for checking what a challenge can target.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		log, closeLog, err := setupLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer closeLog()

		if v, _ := cmd.Flags().GetBool("verbose"); !v {
			log = log.Level(zerolog.WarnLevel)
		}

		cc, err := codecontext.NewExtractor(cfg.ExtractOptions(), log).Extract(cmd.Context(), cfg.Roots)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cc)
	},
}

func init() {
	digestCmd.Flags().BoolP("verbose", "v", false, "Log extraction progress to stderr")
}
