package chromedp_source

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/user/listing-risk-service/internal/entity"
	"github.com/user/listing-risk-service/internal/repository"
	"github.com/user/listing-risk-service/pkg/utils"
)

// PageSession observes one live marketplace page in a headless browser. It
// has read-only access: snapshots of the rendered DOM plus a change feed
// built from frame-navigation events and DOM-hash polling.
type PageSession struct {
	browserCtx   context.Context
	cancelCtx    context.CancelFunc
	cancelAlloc  context.CancelFunc
	loadTimeout  time.Duration
	pollInterval time.Duration
	navEvents    chan struct{}
}

// NewPageSession starts a browser context and navigates to the listing page.
func NewPageSession(url string, loadTimeout, pollInterval time.Duration) (repository.PageSessionRepository, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(`Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36`),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	s := &PageSession{
		browserCtx:   browserCtx,
		cancelCtx:    cancelCtx,
		cancelAlloc:  cancelAlloc,
		loadTimeout:  loadTimeout,
		pollInterval: pollInterval,
		navEvents:    make(chan struct{}, 4),
	}

	// In-tab navigation fires here long before the poll ticker would notice.
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventFrameNavigated); ok {
			select {
			case s.navEvents <- struct{}{}:
			default:
			}
		}
	})

	navCtx, cancel := context.WithTimeout(browserCtx, loadTimeout)
	defer cancel()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// callCtx bounds one browser call by the load timeout. chromedp requires its
// own context chain, so the caller's context is bridged in: when it ends, the
// browser call is cut short too.
func (s *PageSession) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.browserCtx, s.loadTimeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Snapshot captures the page's current URL and serialized DOM.
func (s *PageSession) Snapshot(ctx context.Context) (*entity.PageView, error) {
	runCtx, cancel := s.callCtx(ctx)
	defer cancel()

	var loc, html string
	if err := chromedp.Run(runCtx,
		chromedp.Location(&loc),
		chromedp.OuterHTML("html", &html),
	); err != nil {
		return nil, err
	}
	return &entity.PageView{URL: loc, HTML: html, RetrievedAt: time.Now()}, nil
}

// Location returns the page's current URL without serializing the DOM.
func (s *PageSession) Location(ctx context.Context) (string, error) {
	runCtx, cancel := s.callCtx(ctx)
	defer cancel()

	var loc string
	if err := chromedp.Run(runCtx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Mutations emits an event whenever the serialized DOM hash changes between
// polls, or immediately on frame navigation. The channel closes when the
// given context or the browser context ends.
func (s *PageSession) Mutations(ctx context.Context) (<-chan struct{}, error) {
	out := make(chan struct{}, 16)

	go func() {
		defer close(out)

		var lastHash string
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		emit := func() {
			select {
			case out <- struct{}{}:
			default:
				// A pending event already covers this burst.
			}
		}

		for {
			select {
			case <-ticker.C:
				view, err := s.Snapshot(ctx)
				if err != nil {
					slog.Debug("Mutation poll failed", "error", err)
					continue
				}
				hash := utils.HashKey(view.HTML)
				if lastHash != "" && hash != lastHash {
					emit()
				}
				lastHash = hash
			case <-s.navEvents:
				lastHash = ""
				emit()
			case <-ctx.Done():
				return
			case <-s.browserCtx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Close releases the browser resources.
func (s *PageSession) Close() error {
	s.cancelCtx()
	s.cancelAlloc()
	return nil
}
