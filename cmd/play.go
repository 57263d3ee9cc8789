package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abhisek/codehunt/internal/app"
)

var playCmd = &cobra.Command{
	Use:   "play [roots...]",
	Short: "Play challenges in the terminal UI",
	Long: `Play challenges drawn from the given directories (default: the current
directory). Navigation challenges need the editor plugin connected to the
bridge; modification challenges are also checked when files are saved.

Logs go to the configured log file, since the terminal belongs to the UI.`,
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closeLog, err := setupLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	presenter := app.NewPresenter(log)
	rt, err := newRuntime(ctx, cfg, log, presenter)
	if err != nil {
		return err
	}
	defer rt.Close()

	return rt.run(ctx, func(ctx context.Context) error {
		return app.Run(ctx, rt.orch, presenter, log)
	})
}
