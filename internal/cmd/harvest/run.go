package harvest

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrapeworks/harvester/internal/config"
	"github.com/scrapeworks/harvester/internal/harvester"
)

func newRunCommand() *cobra.Command {
	var configPath string
	var concurrent bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs every configured harvest target to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := config.NewHarvesterFromFile(configPath)
			if err != nil {
				return err
			}

			logger, err := config.InitializeLogger(c.Global.Logger)
			if err != nil {
				return err
			}
			defer logger.Sync()
			l := logger.Named("harvester.run")

			l.Info("starting harvest",
				zap.Int("targets", len(c.Harvest.Targets)),
				zap.Bool("concurrent", concurrent || c.Harvest.Concurrent),
			)

			m, controllers, err := config.InitializeManager(c, logger)
			if err != nil {
				return err
			}

			if c.Global.Server.Addr != "" {
				s := harvester.NewServer(logger.Named("server"))
				for _, ctrl := range controllers {
					s.Register(ctrl)
				}
				go func() {
					if err := s.Start(ctx, c.Global.Server.Addr); err != nil {
						l.Error("harvester server error", zap.Error(err))
					}
				}()
			}

			if concurrent || c.Harvest.Concurrent {
				err = m.RunConcurrent(ctx)
			} else {
				err = m.RunSequential(ctx)
			}
			if err != nil {
				// Failed targets already produced logs and partial output;
				// the run itself completed.
				l.Warn("harvest finished with failed targets", zap.Error(err))
			} else {
				l.Info("harvest finished")
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "Run all targets concurrently")
	cmd.MarkFlagRequired("config")

	return cmd
}
