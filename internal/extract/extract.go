package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/scrapeworks/harvester/internal"
)

// Placeholder is recorded for any sub-field absent from a listing, so every
// record always carries the full field set.
const Placeholder = "N/A"

// TimestampLayout is the capture-timestamp format written with every record.
const TimestampLayout = "2006-01-02 15:04:05"

var fields = []string{"name", "location", "revenue", "employees", "timestamp"}

// Selectors locate the listing elements and their sub-fields on a loaded page.
type Selectors struct {
	Item      string
	Name      string
	Location  string
	Revenue   string
	Employees string
}

// DefaultSelectors match the company-directory listing markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Item:      ".company-item",
		Name:      ".name",
		Location:  ".location",
		Revenue:   ".revenue",
		Employees: ".employees",
	}
}

type Option func(*Extractor)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

func WithSelectors(s Selectors) Option {
	return func(e *Extractor) {
		e.selectors = s
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// Extractor reads the fixed record fields out of every listing element on a
// loaded page.
type Extractor struct {
	selectors Selectors
	logger    *zap.Logger
	now       func() time.Time
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		selectors: DefaultSelectors(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns one record per listing element found in html, in document
// order. A page that cannot be parsed degrades to zero records; extraction
// never fails outward.
func (e *Extractor) Extract(html string) []*internal.Record {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Error("parsing listing page", zap.Error(err))
		return nil
	}

	var records []*internal.Record
	doc.Find(e.selectors.Item).Each(func(_ int, item *goquery.Selection) {
		records = append(records, internal.NewRecord(fields, []string{
			e.text(item, e.selectors.Name),
			e.text(item, e.selectors.Location),
			e.text(item, e.selectors.Revenue),
			e.text(item, e.selectors.Employees),
			e.now().Format(TimestampLayout),
		}))
	})

	e.logger.Info("listings extracted", zap.Int("count", len(records)))
	return records
}

func (e *Extractor) text(item *goquery.Selection, selector string) string {
	sel := item.Find(selector)
	if sel.Length() == 0 {
		return Placeholder
	}
	return strings.TrimSpace(sel.First().Text())
}
