package viewer

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/detect"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
)

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "detect [file]",
		Short:   MsgDetectShort,
		Long:    MsgDetectLong,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.detect")

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

			engine := detect.New(reg)
			best, err := engine.Best(content)
			if err != nil {
				return err
			}

			logger.Debug().
				Str("view", best.View.Name()).
				Int("score", best.Score).
				Str("content", logging.ClipContent(content)).
				Msg("Detection finished")

			suffix := ""
			if best.ByMarker {
				suffix = MsgByMarkerSuffix
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgDetectedFormat,
				ViewNameStyle.Render(best.View.Name()), best.Score, suffix)

			all, _ := cmd.Flags().GetBool("all")
			if !all {
				return nil
			}

			data := pterm.TableData{{"View", "Score", "Marker"}}
			for _, res := range engine.Scores(content) {
				marker := ""
				if res.ByMarker {
					marker = "yes"
				}
				data = append(data, []string{res.View.Name(), strconv.Itoa(res.Score), marker})
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().Bool("all", false, MsgFlagAll)

	return cmd
}
