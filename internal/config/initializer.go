package config

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scrapeworks/harvester/internal/browser"
	"github.com/scrapeworks/harvester/internal/csv"
	"github.com/scrapeworks/harvester/internal/extract"
	"github.com/scrapeworks/harvester/internal/harvester"
	"github.com/scrapeworks/harvester/internal/manager"
)

// InitializeLogger builds the process-wide diagnostic logger from config.
// With a log dir configured, every invocation gets its own timestamped file
// alongside stderr.
func InitializeLogger(cfg Logger) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	if cfg.Dir != "" {
		name := fmt.Sprintf("harvest_%s.log", time.Now().Format("20060102_150405"))
		zcfg.OutputPaths = append(zcfg.OutputPaths, filepath.Join(cfg.Dir, name))
	}

	return zcfg.Build()
}

// InitializeManager wires a controller per target, each with its own browser
// session, extractor and output preserver, and registers them all with a
// manager.
func InitializeManager(cfg *Harvester, logger *zap.Logger) (*manager.Manager, []*harvester.Controller, error) {
	m := manager.New(
		manager.WithLogger(logger.Named("manager")),
	)

	controllers := make([]*harvester.Controller, 0, len(cfg.Harvest.Targets))
	for _, t := range cfg.Harvest.Targets {
		browserOpts := []browser.Option{
			browser.WithLogger(logger.Named("browser")),
		}
		if t.UserAgent != "" {
			browserOpts = append(browserOpts, browser.WithUserAgent(t.UserAgent))
		}
		b := browser.New(browserOpts...)

		e := extract.New(
			extract.WithLogger(logger.Named("extractor")),
			extract.WithSelectors(selectors(t.Selectors)),
		)

		p := csv.New(t.Output,
			csv.WithLogger(logger.Named("preserver")),
		)

		c, err := harvester.New(
			harvester.WithName(t.Name),
			harvester.WithSource(t.URL),
			harvester.WithNavigator(b),
			harvester.WithExtractor(e),
			harvester.WithPreserver(p),
			harvester.WithTimeout(time.Duration(t.TimeoutSeconds)*time.Second),
			harvester.WithMaxPages(t.MaxPages),
			harvester.WithDelay(t.Delay.Min(), t.Delay.Max()),
			harvester.WithCatalogPath(t.Output+".catalog.json"),
			harvester.WithLogger(logger.Named("controller")),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing target %q: %w", t.Name, err)
		}

		m.Register(c)
		controllers = append(controllers, c)
	}

	return m, controllers, nil
}

// selectors fills unset selector fields with the company-directory defaults.
func selectors(s Selectors) extract.Selectors {
	out := extract.DefaultSelectors()
	if s.Item != "" {
		out.Item = s.Item
	}
	if s.Name != "" {
		out.Name = s.Name
	}
	if s.Location != "" {
		out.Location = s.Location
	}
	if s.Revenue != "" {
		out.Revenue = s.Revenue
	}
	if s.Employees != "" {
		out.Employees = s.Employees
	}
	return out
}
