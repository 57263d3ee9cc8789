package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [roots...]",
	Short: "Run a headless session for an editor plugin",
	Long: `Run the session without the terminal UI. The editor plugin connects to
the bridge websocket, receives state, and sends commands and editor events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		if cfg.BridgeAddr == "" {
			return errors.New("serve needs the editor bridge; set --addr or CODEHUNT_BRIDGE_ADDR")
		}
		log, closeLog, err := setupLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx := cmd.Context()
		rt, err := newRuntime(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer rt.Close()

		return rt.run(ctx)
	},
}
