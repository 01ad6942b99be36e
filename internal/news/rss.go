package news

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"options-advisor/internal/logger"
)

// rssFeeds are the fallback sources when scraping yields nothing.
var rssFeeds = []struct {
	name string
	url  string
}{
	{"ET Markets RSS", "https://economictimes.indiatimes.com/markets/rssfeeds/1977021501.cms"},
	{"MoneyControl RSS", "https://www.moneycontrol.com/rss/marketreports.xml"},
}

// FetchRSS pulls headline titles out of the fallback RSS feeds. Feeds are
// plain XML; goquery's tokenizer handles <item><title> fine without a
// dedicated feed parser.
func FetchRSS(ctx context.Context, client *http.Client, max int) ([]Headline, error) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	var all []Headline
	for _, feed := range rssFeeds {
		items, err := fetchFeed(ctx, client, feed.url, feed.name, max-len(all))
		if err != nil {
			logger.ErrorWithErr(ctx, "RSS fetch failed", err, "feed", feed.name)
			continue
		}
		all = append(all, items...)
		if len(all) >= max {
			break
		}
	}
	return all, nil
}

func fetchFeed(ctx context.Context, client *http.Client, feedURL, name string, max int) ([]Headline, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned %d", name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", name, err)
	}

	var items []Headline
	doc.Find("item").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Find("title").First().Text())
		if title == "" {
			return true
		}
		items = append(items, Headline{
			Title:       title,
			URL:         strings.TrimSpace(sel.Find("link").First().Text()),
			Source:      name,
			PublishedAt: strings.TrimSpace(sel.Find("pubDate").First().Text()),
		})
		return len(items) < max
	})
	return items, nil
}
