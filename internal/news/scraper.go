package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"options-advisor/internal/logger"
)

// Headline is one scraped market headline.
type Headline struct {
	Title       string
	URL         string
	Source      string
	PublishedAt string
}

// Scraper pulls market headlines from the configured sources.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source is one scrapeable news site.
type Source struct {
	Name      string
	URL       string
	Selectors Selectors
	RateLimit time.Duration
}

// Selectors are the CSS paths for extracting headline data.
type Selectors struct {
	Container   string
	Title       string
	Link        string
	PublishedAt string
}

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: defaultSources(),
		timeout: timeout,
	}
}

// defaultSources lists the market-news index pages to scrape.
func defaultSources() []Source {
	return []Source{
		{
			Name: "MoneyControl",
			URL:  "https://www.moneycontrol.com/news/business/markets/",
			Selectors: Selectors{
				Container:   "li.clearfix",
				Title:       "h2 a, h3 a",
				Link:        "h2 a, h3 a",
				PublishedAt: "span.ago",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name: "EconomicTimes",
			URL:  "https://economictimes.indiatimes.com/markets",
			Selectors: Selectors{
				Container:   "div.story-box",
				Title:       "a",
				Link:        "a",
				PublishedAt: "time",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Headlines fetches up to max headlines across all sources. A source that
// fails is skipped; the others still contribute.
func (s *Scraper) Headlines(ctx context.Context, max int) ([]Headline, error) {
	perSource := max / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	var all []Headline
	for _, source := range s.sources {
		items, err := s.scrapeSource(ctx, source, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name)
			continue
		}
		all = append(all, items...)
		time.Sleep(source.RateLimit)
	}

	logger.Info(ctx, "Headline scraping completed", "headlines", len(all))
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, source Source, max int) ([]Headline, error) {
	var items []Headline

	c := colly.NewCollector(
		colly.AllowedDomains(domainOf(source.URL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", browserUA)
	})

	c.OnHTML(source.Selectors.Container, func(e *colly.HTMLElement) {
		if len(items) >= max {
			return
		}
		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			return
		}
		link := e.ChildAttr(source.Selectors.Link, "href")
		if link != "" && !strings.HasPrefix(link, "http") {
			link = domainBase(source.URL) + link
		}
		items = append(items, Headline{
			Title:       title,
			URL:         link,
			Source:      source.Name,
			PublishedAt: strings.TrimSpace(e.ChildText(source.Selectors.PublishedAt)),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	if err := c.Visit(source.URL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", source.URL, err)
	}
	c.Wait()
	return items, nil
}

func domainOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func domainBase(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
