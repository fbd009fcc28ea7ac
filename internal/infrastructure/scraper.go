package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/yourusername/vgm-archiver/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scraper crawls the soundtrack site and produces the flat catalog the
// orchestrator consumes. It keeps no state of its own; any page that fails
// to parse is skipped with a warning.
type Scraper struct {
	client *http.Client
	config *domain.ScraperConfig
	logger *zap.Logger
}

// NewScraper creates a scraper. A nil client falls back to a default with
// a page-sized timeout.
func NewScraper(client *http.Client, config *domain.ScraperConfig, logger *zap.Logger) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Scraper{client: client, config: config, logger: logger}
}

// Crawl walks every category and returns the full catalog.
func (s *Scraper) Crawl(ctx context.Context) ([]domain.Target, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}

	var catalog []domain.Target
	for _, cat := range categories {
		targets, err := s.CategoryTargets(ctx, cat.Name, cat.URL)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}
		catalog = append(catalog, targets...)
	}
	return catalog, nil
}

// Category is one crawlable platform section of the site.
type Category struct {
	Name string
	URL  string
}

// Categories lists the platform sections from the music index page.
func (s *Scraper) Categories(ctx context.Context) ([]Category, error) {
	doc, err := s.fetchDocument(ctx, s.config.BaseURL+"/music")
	if err != nil {
		return nil, err
	}

	var categories []Category
	doc.Find("h2").EachWithBreak(func(_ int, h2 *goquery.Selection) bool {
		if strings.TrimSpace(h2.Text()) != "Consoles" {
			return true
		}
		h2.NextFiltered("ul").Find("li a").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok {
				return
			}
			categories = append(categories, Category{
				Name: strings.TrimSpace(a.Text()),
				URL:  s.absoluteURL(href),
			})
		})
		return false
	})

	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories found at %s/music", s.config.BaseURL)
	}
	return categories, nil
}

// CategoryTargets pages through a category's game list and scrapes every
// game page. The list walk is sequential with a politeness delay; game
// pages within the category are fetched concurrently with a small limit.
func (s *Scraper) CategoryTargets(ctx context.Context, category, categoryURL string) ([]domain.Target, error) {
	type listing struct {
		name string
		url  string
	}

	var listings []listing
	for page := 1; ; page++ {
		doc, err := s.fetchDocument(ctx, fmt.Sprintf("%s?page=%d", categoryURL, page))
		if err != nil {
			return nil, err
		}

		rows := doc.Find("#gamelist .regularrow, #gamelist .regularrow_image")
		if rows.Length() == 0 {
			break
		}

		rows.Each(func(_ int, row *goquery.Selection) {
			a := row.Find("td.name a").First()
			href, ok := a.Attr("href")
			if !ok {
				return
			}
			listings = append(listings, listing{
				name: strings.TrimSpace(a.Text()),
				url:  s.absoluteURL(href),
			})
		})

		if s.config.PageDelay > 0 {
			select {
			case <-time.After(s.config.PageDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	s.logger.Info("Category listed",
		zap.String("category", category),
		zap.Int("targets", len(listings)))

	limit := s.config.Concurrency
	if limit < 1 {
		limit = 1
	}

	targets := make([]domain.Target, len(listings))
	ok := make([]bool, len(listings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, l := range listings {
		i, l := i, l
		g.Go(func() error {
			target, err := s.scrapeTargetPage(gctx, l.url, category, l.name)
			if err != nil {
				s.logger.Warn("Skipping game page",
					zap.String("url", l.url),
					zap.Error(err))
				return nil
			}
			targets[i] = target
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.Target, 0, len(targets))
	for i, t := range targets {
		if ok[i] {
			out = append(out, t)
		}
	}
	return out, nil
}

// scrapeTargetPage extracts one game page: cover, info fields and the
// download link variants.
func (s *Scraper) scrapeTargetPage(ctx context.Context, pageURL, category, name string) (domain.Target, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return domain.Target{}, err
	}

	target := domain.Target{
		Name:     name,
		Category: category,
		PageURL:  pageURL,
	}

	if src, ok := doc.Find("#music_cover img").First().Attr("src"); ok {
		target.CoverURL = s.absoluteURL(src)
	}

	doc.Find("#music_info p").Each(func(_ int, p *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(p.Find("span.infoname").Text()))
		value := strings.TrimSpace(p.Find("span.infodata").Text())
		switch {
		case strings.Contains(label, "release date"):
			target.ReleaseDate = value
		case strings.Contains(label, "developer"):
			target.Developer = value
		case strings.Contains(label, "publisher"):
			target.Publisher = value
		}
	})

	doc.Find("#mass_download a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		target.Variants = append(target.Variants, domain.AssetVariant{
			Label: strings.TrimSpace(a.Find("p").First().Text()),
			URL:   s.absoluteURL(href),
		})
	})

	return target, nil
}

func (s *Scraper) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func (s *Scraper) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return s.config.BaseURL + href
}
