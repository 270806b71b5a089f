package news

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/store"
)

// Source is one scraped news site: a listing URL plus the CSS selectors that
// locate headlines on it.
type Source struct {
	Name      string
	URL       string
	Container string
	Title     string
}

func defaultSources() []Source {
	return []Source{
		{
			Name:      "FXStreet",
			URL:       "https://www.fxstreet.com/news",
			Container: "article",
			Title:     "h4 a, h3 a",
		},
		{
			Name:      "DailyFX",
			URL:       "https://www.dailyfx.com/market-news",
			Container: "div.dfx-articleListItem",
			Title:     "a.dfx-articleListItem__title, h3 a",
		},
	}
}

// Service scrapes forex headlines and serves them as oracle context. Scrape
// failures degrade to no context; they never fail a cycle.
type Service struct {
	enabled bool
	max     int
	timeout time.Duration
	sources []Source

	mu        sync.Mutex
	cache     []string
	fetchedAt time.Time
	ttl       time.Duration
}

func NewService(cfg *store.Config) *Service {
	return &Service{
		enabled: cfg.News.Enabled,
		max:     cfg.News.MaxHeadlines,
		timeout: time.Duration(cfg.CallTimeoutSeconds) * time.Second,
		sources: defaultSources(),
		ttl:     time.Hour,
	}
}

// MarketContext returns up to max recent headline lines, cached for an hour.
func (s *Service) MarketContext(ctx context.Context, instrument string) []string {
	if s == nil || !s.enabled {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.fetchedAt) < s.ttl && s.cache != nil {
		return s.cache
	}

	headlines := s.scrape(ctx)
	if len(headlines) > s.max {
		headlines = headlines[:s.max]
	}
	s.cache = headlines
	s.fetchedAt = time.Now()
	logger.Debug(ctx, "News context refreshed", "instrument", instrument, "headlines", len(headlines))
	return s.cache
}

func (s *Service) scrape(ctx context.Context) []string {
	var out []string
	for _, src := range s.sources {
		titles, err := scrapeSource(src, s.timeout)
		if err != nil {
			logger.Warn(ctx, "News source scrape failed", "source", src.Name, "error", err)
			continue
		}
		for _, t := range titles {
			out = append(out, fmt.Sprintf("[%s] %s", src.Name, t))
		}
	}
	return out
}

func scrapeSource(src Source, timeout time.Duration) ([]string, error) {
	var titles []string

	c := colly.NewCollector(colly.MaxDepth(1))
	c.SetRequestTimeout(timeout)

	c.OnHTML(src.Container, func(e *colly.HTMLElement) {
		e.DOM.Find(src.Title).Each(func(_ int, sel *goquery.Selection) {
			if title := strings.TrimSpace(sel.Text()); title != "" {
				titles = append(titles, title)
			}
		})
	})

	if err := c.Visit(src.URL); err != nil {
		return nil, err
	}
	c.Wait()
	return titles, nil
}
