package harvest

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "harvest",
		Short: "Manages harvest targets",
	}
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newTargetsCommand())
	return cmd
}
