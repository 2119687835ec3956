package viewer

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/export"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export [file]",
		Short:   MsgExportShort,
		Long:    MsgExportLong,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.export")

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

			files, err := export.Plan(content, reg)
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			if err := export.Archive(f, files); err != nil {
				return err
			}

			logger.Info().Int("files", len(files)).Str("archive", output).Msg("Export finished")
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(fmt.Sprintf(MsgArchivedFormat, len(files), output)))
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "export.zip", MsgFlagZip)

	return cmd
}
