package renderer

import (
	"context"
	"errors"
	"sync"

	"github.com/go-rod/rod"
)

// ErrPoolClosed is returned when acquiring from a closed pool.
var ErrPoolClosed = errors.New("tab pool is closed")

// TabPool hands out browser tabs for concurrent rendering. Tabs are
// created lazily on first demand, up to maxTabs, and recycled between
// renders instead of being torn down.
type TabPool struct {
	browser *rod.Browser
	maxTabs int

	mu      sync.Mutex
	created int
	closed  bool
	idle    chan *rod.Page
}

// NewTabPool creates a pool that will open at most maxTabs tabs.
func NewTabPool(browser *rod.Browser, maxTabs int) (*TabPool, error) {
	if maxTabs <= 0 {
		maxTabs = 5
	}
	return &TabPool{
		browser: browser,
		maxTabs: maxTabs,
		idle:    make(chan *rod.Page, maxTabs),
	}, nil
}

// Acquire returns an idle tab, opening a new one if the pool has not
// reached its cap yet. It blocks until a tab frees up or the context
// is cancelled.
func (p *TabPool) Acquire(ctx context.Context) (*rod.Page, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	// Prefer a recycled tab.
	select {
	case page, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return page, nil
	default:
	}

	p.mu.Lock()
	if p.created < p.maxTabs {
		p.created++
		p.mu.Unlock()
		page, err := StealthPage(p.browser)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}
		return page, nil
	}
	p.mu.Unlock()

	select {
	case page, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return page, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release hands a tab back for reuse. The tab is reset to a blank
// page first so state does not leak between renders.
func (p *TabPool) Release(page *rod.Page) {
	if page == nil {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		page.Close()
		return
	}
	p.mu.Unlock()

	_ = page.Navigate("about:blank")

	select {
	case p.idle <- page:
	default:
		// More releases than acquires; drop the extra tab.
		p.mu.Lock()
		p.created--
		p.mu.Unlock()
		page.Close()
	}
}

// Close shuts down all idle tabs. Tabs still checked out are closed
// when released.
func (p *TabPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.idle)
	for page := range p.idle {
		page.Close()
	}
	return nil
}

// Size reports how many tabs are currently idle.
func (p *TabPool) Size() int {
	return len(p.idle)
}

// MaxSize reports the tab cap.
func (p *TabPool) MaxSize() int {
	return p.maxTabs
}
