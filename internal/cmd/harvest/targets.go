package harvest

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scrapeworks/harvester/internal/config"
)

func newTargetsCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Prints the configured harvest targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.NewHarvesterFromFile(configPath)
			if err != nil {
				return err
			}

			for _, t := range c.Harvest.Targets {
				fmt.Printf("%s\n  url:    %s\n  output: %s\n  delay:  %.1fs-%.1fs\n",
					t.Name, t.URL, t.Output, t.Delay.MinSeconds, t.Delay.MaxSeconds)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.MarkFlagRequired("config")

	return cmd
}
