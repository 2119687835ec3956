package viewer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newViewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "views",
		Short:   MsgViewsShort,
		Long:    MsgViewsLong,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			descriptors := reg.ByPriority()
			if len(descriptors) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), MutedStyle.Render(MsgNoViewsDetected))
				return nil
			}

			data := pterm.TableData{{"View", "Display Name", "Priority", "Marker", "Interactive", "Dependencies"}}
			for _, d := range descriptors {
				interactive := ""
				if d.Interactive {
					interactive = "yes"
				}
				data = append(data, []string{
					d.View.Name(),
					d.View.DisplayName(),
					strconv.Itoa(d.View.Priority()),
					d.Marker,
					interactive,
					strings.Join(d.Dependencies, ", "),
				})
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}
