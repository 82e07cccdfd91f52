package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// DefaultUserAgent identifies the harvester's browser sessions.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

type Option func(*Browser)

func WithLogger(logger *zap.Logger) Option {
	return func(b *Browser) {
		b.logger = logger
	}
}

func WithUserAgent(ua string) Option {
	return func(b *Browser) {
		b.userAgent = ua
	}
}

// Browser owns one headless Chrome session. Every harvest target gets a
// private Browser; sessions are never shared across targets.
type Browser struct {
	userAgent string
	logger    *zap.Logger

	cancelAlloc context.CancelFunc
	cancelPage  context.CancelFunc
	pageCtx     context.Context
}

func New(opts ...Option) *Browser {
	b := &Browser{
		userAgent: DefaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Launch starts the browser process and opens an isolated page context
// rooted at ctx; cancelling ctx tears the whole session down. The process is
// started eagerly so acquisition failures surface here rather than on the
// first navigation.
func (b *Browser) Launch(ctx context.Context) error {
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(b.userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(pageCtx); err != nil {
		cancelPage()
		cancelAlloc()
		return fmt.Errorf("launching browser: %w", err)
	}

	b.cancelAlloc = cancelAlloc
	b.cancelPage = cancelPage
	b.pageCtx = pageCtx

	b.logger.Info("browser launched", zap.String("user_agent", b.userAgent))
	return nil
}

// Navigate loads url, checks the response status and waits for the document
// body to be ready. Navigation faults are logged with the target URL and
// cause, never escalated: a false return is the only failure signal. A
// non-success HTTP status (>= 400) is a navigation failure even though the
// browser renders the error page.
func (b *Browser) Navigate(url string, timeout time.Duration) bool {
	navCtx, cancel := context.WithTimeout(b.pageCtx, timeout)
	defer cancel()

	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(url))
	if err != nil {
		b.logger.Error("navigation failed",
			zap.String("url", url),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return false
	}
	if resp != nil && resp.Status >= 400 {
		b.logger.Error("navigation returned error status",
			zap.String("url", url),
			zap.Int64("status", resp.Status),
		)
		return false
	}

	if err := chromedp.Run(navCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		b.logger.Error("page never settled",
			zap.String("url", url),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return false
	}

	b.logger.Info("navigated", zap.String("url", url))
	return true
}

// HTML returns the serialized markup of the currently loaded page. The read
// is bound by timeout so a wedged renderer cannot stall the page loop.
func (b *Browser) HTML(timeout time.Duration) (string, error) {
	htmlCtx, cancel := context.WithTimeout(b.pageCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(htmlCtx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("reading page html: %w", err)
	}
	return html, nil
}

// Close releases the page context and the browser process. Safe to call even
// when Launch failed or never ran.
func (b *Browser) Close() error {
	if b.cancelPage != nil {
		b.cancelPage()
	}
	if b.cancelAlloc != nil {
		b.cancelAlloc()
	}
	b.logger.Info("browser closed")
	return nil
}
