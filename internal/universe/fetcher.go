package universe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/swingscan/pkg/httputil"
	"github.com/wonny/swingscan/pkg/logger"
)

// ConstituentsURL is the public page listing current S&P 500 members
const ConstituentsURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// Fetcher scrapes the current constituents table.
// Only `universe refresh` uses it; scans read the embedded or refreshed CSV.
type Fetcher struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewFetcher creates a fetcher for ConstituentsURL
func NewFetcher(httpClient *httputil.Client, log *logger.Logger) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		logger:     log,
		url:        ConstituentsURL,
	}
}

// WithURL points the fetcher elsewhere (mirrors, tests)
func (f *Fetcher) WithURL(url string) *Fetcher {
	f.url = url
	return f
}

// Fetch downloads and parses the constituents table
func (f *Fetcher) Fetch(ctx context.Context) ([]Member, error) {
	resp, err := f.httpClient.Get(ctx, f.url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	members, err := parseConstituents(resp.Body)
	if err != nil {
		return nil, err
	}

	f.logger.WithFields(map[string]interface{}{
		"count": len(members),
		"url":   f.url,
	}).Info("Fetched universe constituents")

	return members, nil
}

// parseConstituents reads table#constituents, locating columns by header text
func parseConstituents(r io.Reader) ([]Member, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("constituents table not found")
	}

	symbolCol, nameCol, sectorCol := -1, -1, -1
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		switch strings.TrimSpace(th.Text()) {
		case "Symbol":
			symbolCol = i
		case "Security":
			nameCol = i
		case "GICS Sector":
			sectorCol = i
		}
	})
	if symbolCol < 0 || nameCol < 0 || sectorCol < 0 {
		return nil, fmt.Errorf("constituents table missing Symbol/Security/GICS Sector headers")
	}

	var members []Member
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= max(symbolCol, nameCol, sectorCol) {
			return
		}

		symbol := strings.TrimSpace(cells.Eq(symbolCol).Text())
		if symbol == "" {
			return
		}

		members = append(members, Member{
			Symbol: symbol,
			Name:   strings.TrimSpace(cells.Eq(nameCol).Text()),
			Sector: strings.TrimSpace(cells.Eq(sectorCol).Text()),
		})
	})

	if len(members) == 0 {
		return nil, fmt.Errorf("constituents table has no rows")
	}

	return members, nil
}
