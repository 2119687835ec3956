package viewer

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/detect"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/registry"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/render"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/views"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "render [file]",
		Short:   MsgRenderShort,
		Long:    MsgRenderLong,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.render")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			content, err := readContent(cmd, args)
			if err != nil {
				return err
			}

			if terminal, _ := cmd.Flags().GetBool("terminal"); terminal {
				return renderTerminal(cmd, reg, content)
			}

			store, cleanup, err := buildStore(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			nodeID, _ := cmd.Flags().GetString("node")
			viewOverride, _ := cmd.Flags().GetString("view")

			pipeline := render.New(reg, nil)
			pipeline.SetReadyTimeout(cfg.Surface.ReadyTimeout)

			hc := &types.HostContext{
				NodeID:       nodeID,
				Store:        store,
				Theme:        cfg.Theme.Theme(),
				ViewOverride: viewOverride,
			}

			result, err := pipeline.Render(content, hc)
			if err != nil {
				return err
			}

			logger.Info().
				Str("view", result.View).
				Int("items", result.Items).
				Msg("Render finished")

			html := result.Document.Standalone()
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), html)
				return nil
			}

			if err := os.WriteFile(output, []byte(html), 0644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(fmt.Sprintf(MsgWroteFormat, output, len(html))))
			return nil
		},
	}

	cmd.Flags().String("node", "", MsgFlagNode)
	cmd.Flags().String("view", "", MsgFlagView)
	cmd.Flags().StringP("output", "o", "", MsgFlagOutput)
	cmd.Flags().BoolP("terminal", "t", false, MsgFlagTerminal)

	return cmd
}

// renderTerminal pretty-prints markdown with glamour; everything else
// passes through untouched so ANSI content keeps its escapes.
func renderTerminal(cmd *cobra.Command, reg registry.Registry, content string) error {
	best, err := detect.New(reg).Best(content)
	if err != nil {
		return err
	}

	if best.View.Name() != views.MarkdownViewName {
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
