package viewer

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/assets"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/render"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   MsgServeShort,
		Long:    MsgServeLong,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.serve")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// A config-file verbosity takes over when no -v was given;
			// the server usually runs unattended.
			verbosity, _ := cmd.Root().PersistentFlags().GetCount("verbose")
			if verbosity == 0 && cfg.Verbosity > 0 {
				logging.SetupLogger(cfg.Verbosity)
			}

			reg, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			store, cleanup, err := buildStore(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			loader := assets.New(cfg.Assets.Sources(), cfg.Assets.Timeout)
			pipeline := render.New(reg, loader)
			pipeline.SetReadyTimeout(cfg.Surface.ReadyTimeout)

			addr := cfg.Server.Addr
			if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
				addr = flagAddr
			}

			logger.Info().
				Str("addr", addr).
				Str("store", cfg.State.Store).
				Int("views", reg.Count()).
				Msg("Starting preview API")

			srv := server.New(pipeline, store, server.Options{
				Addr:      addr,
				RateLimit: cfg.Server.RateLimit,
				RateBurst: cfg.Server.RateBurst,
				Theme:     cfg.Theme.Theme(),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().String("addr", "", MsgFlagAddr)

	return cmd
}
