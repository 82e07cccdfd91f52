package harvester

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scrapeworks/harvester/internal"
	"github.com/scrapeworks/harvester/internal/catalog"
	"github.com/scrapeworks/harvester/internal/csv"
	"github.com/scrapeworks/harvester/internal/paginate"
)

// Navigator is the browser surface the controller depends on. The real
// implementation lives in internal/browser; tests script their own.
type Navigator interface {
	Launch(ctx context.Context) error
	Navigate(url string, timeout time.Duration) bool
	HTML(timeout time.Duration) (string, error)
	Close() error
}

// Extractor turns a loaded page's markup into records.
type Extractor interface {
	Extract(html string) []*internal.Record
}

// Preserver persists a batch of records to the target's output.
type Preserver interface {
	Flush(ctx context.Context, records []*internal.Record, mode csv.Mode) (int, error)
}

const (
	DefaultTimeout  = 30 * time.Second
	DefaultDelayMin = 1 * time.Second
	DefaultDelayMax = 3 * time.Second

	// flushEveryPages is the fixed batching cadence: buffered records are
	// written out every fifth page and at the final page.
	flushEveryPages = 5
)

type Option func(*Controller)

func WithID(id string) Option {
	return func(c *Controller) {
		c.id = id
	}
}

func WithName(name string) Option {
	return func(c *Controller) {
		c.name = name
	}
}

func WithSource(url string) Option {
	return func(c *Controller) {
		c.url = url
	}
}

func WithNavigator(n Navigator) Option {
	return func(c *Controller) {
		c.navigator = n
	}
}

func WithExtractor(e Extractor) Option {
	return func(c *Controller) {
		c.extractor = e
	}
}

func WithPreserver(p Preserver) Option {
	return func(c *Controller) {
		c.preserver = p
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.timeout = timeout
	}
}

// WithMaxPages clamps the discovered page count. Zero means no clamp.
func WithMaxPages(n int) Option {
	return func(c *Controller) {
		c.maxPages = n
	}
}

func WithDelay(min, max time.Duration) Option {
	return func(c *Controller) {
		c.delayMin = min
		c.delayMax = max
	}
}

// WithCatalogPath enables writing a run catalog when the run ends. Empty
// disables the catalog.
func WithCatalogPath(path string) Option {
	return func(c *Controller) {
		c.catalogPath = path
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller drives one harvest target: it walks the target's listing pages,
// buffers extracted records and flushes them incrementally. Local faults
// degrade page-by-page; the run is only abandoned when the browser cannot be
// acquired or the very first navigation fails.
type Controller struct {
	id          string
	name        string
	url         string
	timeout     time.Duration
	maxPages    int
	delayMin    time.Duration
	delayMax    time.Duration
	catalogPath string

	navigator Navigator
	extractor Extractor
	preserver Preserver

	State  *FSM
	logger *zap.Logger
	rand   *rand.Rand
	sleep  func(ctx context.Context, d time.Duration)

	// flushed is set once records have reached the output; the first write
	// of a run truncates, every later write appends.
	flushed bool

	mu    sync.RWMutex
	stats Stats
}

func New(opts ...Option) (*Controller, error) {
	c := &Controller{
		id:       uuid.NewString(),
		timeout:  DefaultTimeout,
		delayMin: DefaultDelayMin,
		delayMax: DefaultDelayMax,
		logger:   zap.NewNop(),
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.url == "" {
		return nil, fmt.Errorf("controller requires a source url")
	}
	if c.navigator == nil {
		return nil, fmt.Errorf("controller requires a navigator")
	}
	if c.extractor == nil {
		return nil, fmt.Errorf("controller requires an extractor")
	}
	if c.preserver == nil {
		return nil, fmt.Errorf("controller requires a preserver")
	}
	if c.delayMax < c.delayMin {
		return nil, fmt.Errorf("delay max %s is below min %s", c.delayMax, c.delayMin)
	}
	if c.name == "" {
		c.name = c.url
	}

	c.State = NewFSM(
		FSMWithInitialState(StateCreated),
		FSMWithLogger(c.logger.Named("fsm")),
	)
	return c, nil
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) Name() string {
	return c.name
}

func (c *Controller) Source() string {
	return c.url
}

// Stats returns a snapshot of the run's counters.
func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := c.stats
	stats.State = c.State.Current()
	return stats
}

// Run executes the full harvest for this controller's target. The browser is
// released unconditionally, whatever else fails. The returned error is
// non-nil only for browser acquisition faults; every later fault is logged
// and degraded per page.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("starting harvest",
		zap.String("harvest_id", c.id),
		zap.String("url", c.url),
	)

	c.mu.Lock()
	c.stats.StartedAt = time.Now()
	c.mu.Unlock()

	completed := false
	defer func() {
		if err := c.navigator.Close(); err != nil {
			c.logger.Error("closing browser", zap.Error(err))
		}
		c.State.Transition(StateClosed)

		c.mu.Lock()
		c.stats.CompletedAt = time.Now()
		c.mu.Unlock()

		c.writeCatalog(completed)
		c.logger.Info("harvest finished",
			zap.String("harvest_id", c.id),
			zap.Bool("completed", completed),
		)
	}()

	if err := c.navigator.Launch(ctx); err != nil {
		c.State.Transition(StateError)
		return fmt.Errorf("acquiring browser for %s: %w", c.url, err)
	}
	if err := c.State.Transition(StateBrowserReady); err != nil {
		return err
	}

	if !c.navigator.Navigate(c.url, c.timeout) {
		c.logger.Error("first navigation failed, abandoning target", zap.String("url", c.url))
		return nil
	}
	if err := c.State.Transition(StateHarvesting); err != nil {
		return err
	}

	totalPages := c.discoverTotalPages()
	c.logger.Info("pages discovered", zap.Int("total_pages", totalPages))

	var buffer []*internal.Record
	for page := 1; page <= totalPages; page++ {
		select {
		case <-ctx.Done():
			c.flush(ctx, buffer)
			return ctx.Err()
		default:
		}

		visited := true
		if page > 1 {
			pageURL := paginate.PageURL(c.url, page)
			if !c.navigator.Navigate(pageURL, c.timeout) {
				c.logger.Warn("skipping page after navigation failure",
					zap.Int("page", page),
					zap.String("url", pageURL),
				)
				visited = false
			}
		}

		if visited {
			c.harvestPage(page, totalPages, &buffer)
		} else {
			c.mu.Lock()
			c.stats.PagesSkipped++
			c.mu.Unlock()
		}

		if shouldFlush(page, totalPages) {
			c.flush(ctx, buffer)
			buffer = nil
		}

		if page < totalPages {
			c.pause(ctx)
		}
	}

	// Whatever the cadence left behind is written out unconditionally.
	if len(buffer) > 0 {
		c.flush(ctx, buffer)
	}

	completed = true
	return nil
}

// discoverTotalPages derives the page count from the currently loaded page,
// clamped to the configured maximum. Derived exactly once per run: pages the
// site adds mid-run are not noticed.
func (c *Controller) discoverTotalPages() int {
	total := 1
	html, err := c.navigator.HTML(c.timeout)
	if err != nil {
		c.logger.Error("reading first page, assuming a single page", zap.Error(err))
	} else {
		total = paginate.TotalPages(html)
	}

	if c.maxPages > 0 && c.maxPages < total {
		c.logger.Info("clamping page count",
			zap.Int("discovered", total),
			zap.Int("max_pages", c.maxPages),
		)
		total = c.maxPages
	}

	c.mu.Lock()
	c.stats.TotalPages = total
	c.mu.Unlock()
	return total
}

func (c *Controller) harvestPage(page, totalPages int, buffer *[]*internal.Record) {
	html, err := c.navigator.HTML(c.timeout)
	if err != nil {
		c.logger.Error("reading page content",
			zap.Int("page", page),
			zap.Error(err),
		)
		c.mu.Lock()
		c.stats.PagesSkipped++
		c.mu.Unlock()
		return
	}

	records := c.extractor.Extract(html)
	*buffer = append(*buffer, records...)

	c.mu.Lock()
	c.stats.PagesVisited++
	c.stats.RecordsExtracted += len(records)
	c.mu.Unlock()

	c.logger.Info("page harvested",
		zap.Int("page", page),
		zap.Int("total_pages", totalPages),
		zap.Int("records", len(records)),
	)
}

// flush writes the buffer out. Write faults are logged and absorbed: a
// failing output produces a smaller file, never an aborted run.
func (c *Controller) flush(ctx context.Context, records []*internal.Record) {
	mode := csv.ModeAppend
	if !c.flushed {
		mode = csv.ModeTruncate
	}

	n, err := c.preserver.Flush(ctx, records, mode)
	if err != nil {
		c.logger.Error("flush failed",
			zap.Int("records", len(records)),
			zap.Error(err),
		)
		return
	}
	if n == 0 {
		return
	}

	c.flushed = true
	c.mu.Lock()
	c.stats.RecordsWritten += n
	c.stats.Flushes++
	c.mu.Unlock()
}

// pause applies the polite randomized delay between page fetches.
func (c *Controller) pause(ctx context.Context) {
	d := c.delay()
	c.logger.Debug("pausing between pages", zap.Duration("delay", d))
	c.sleep(ctx, d)
}

// delay draws uniformly from [delayMin, delayMax], bounds inclusive.
func (c *Controller) delay() time.Duration {
	if c.delayMax <= c.delayMin {
		return c.delayMin
	}
	return c.delayMin + time.Duration(c.rand.Int63n(int64(c.delayMax-c.delayMin)+1))
}

func (c *Controller) writeCatalog(completed bool) {
	if c.catalogPath == "" {
		return
	}

	stats := c.Stats()
	log := catalog.Catalog{
		HarvestID:        c.id,
		Source:           c.url,
		StartTime:        stats.StartedAt,
		EndTime:          stats.CompletedAt,
		TotalPages:       stats.TotalPages,
		PagesVisited:     stats.PagesVisited,
		PagesSkipped:     stats.PagesSkipped,
		RecordsExtracted: stats.RecordsExtracted,
		RecordsWritten:   stats.RecordsWritten,
		Completed:        completed,
	}
	if err := log.Write(c.catalogPath); err != nil {
		c.logger.Error("writing catalog",
			zap.String("path", c.catalogPath),
			zap.Error(err),
		)
	}
}

// shouldFlush reports whether the buffer should be written out after the
// given page.
func shouldFlush(page, totalPages int) bool {
	return page%flushEveryPages == 0 || page == totalPages
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
