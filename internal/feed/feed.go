package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/npa-sniper/internal/logging"
	"github.com/jonathan/npa-sniper/internal/types"
)

// Record is one raw asset as returned by a feed. Its shape differs per feed.
type Record map[string]any

// Page is one decoded feed response.
type Page struct {
	Number    int
	Rows      []Record
	TotalData float64
}

// Empty reports whether the page carried no rows.
func (p *Page) Empty() bool {
	return p == nil || len(p.Rows) == 0
}

// Poster sends a JSON body with retries. *fetch.Client implements it.
type Poster interface {
	PostWithRetry(ctx context.Context, endpoint string, payload any, label string, page int) ([]byte, error)
}

// Endpoints holds the two search URLs.
type Endpoints struct {
	Regular string
	Auction string
}

// Client fetches and decodes feed pages.
type Client struct {
	poster    Poster
	endpoints Endpoints
	pageSize  int
	logger    logging.Logger
	now       func() time.Time
}

// NewClient creates a feed client over poster.
func NewClient(poster Poster, endpoints Endpoints, pageSize int, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		poster:    poster,
		endpoints: endpoints,
		pageSize:  max(1, pageSize),
		logger:    logger,
		now:       time.Now,
	}
}

// PageSize returns the number of rows requested per page.
func (c *Client) PageSize() int {
	return c.pageSize
}

// FetchPage requests one page of category and decodes it.
func (c *Client) FetchPage(ctx context.Context, category Category, page int) (*Page, error) {
	endpoint := c.endpoints.Regular
	if category.IsAuction() {
		endpoint = c.endpoints.Auction
	}

	body, err := c.poster.PostWithRetry(ctx, endpoint, category.Payload(page, c.pageSize), category.Label, page)
	if err != nil {
		return nil, err
	}

	decoded, err := DecodePage(body)
	if err != nil {
		return nil, fmt.Errorf("%s page %d: %w", category.Label, page, err)
	}
	decoded.Number = page
	return decoded, nil
}

type pageEnvelope struct {
	Data      []Record `json:"data"`
	TotalData any      `json:"totalData"`
}

// DecodePage parses a `{data, totalData}` response body.
// Numbers are kept as json.Number so large identifiers survive intact.
func DecodePage(body []byte) (*Page, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var env pageEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode feed page: %w", err)
	}

	total, _ := ToFloat(env.TotalData)
	return &Page{Rows: env.Data, TotalData: total}, nil
}

// CaptureSnapshots reads page 1 of every category and records its size.
// Any fetch failure aborts the capture.
func (c *Client) CaptureSnapshots(ctx context.Context) ([]types.FeedSnapshot, error) {
	categories := AllCategories()
	snapshots := make([]types.FeedSnapshot, 0, len(categories))

	for _, category := range categories {
		page, err := c.FetchPage(ctx, category, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to capture %s metadata: %w", category.Label, err)
		}

		total := TotalRecords(page)
		snap := types.FeedSnapshot{
			FeedType:     category.FeedType,
			Category:     category.Label,
			TotalRecords: total,
			PageCount:    PageCount(total, c.pageSize),
			CheckedAt:    c.now().UTC(),
		}
		c.logger.Info("captured feed metadata",
			logging.String("category", category.Label),
			logging.Int("total_records", snap.TotalRecords),
			logging.Int("page_count", snap.PageCount))
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// TotalRecords returns the advertised total, or the row count when the feed reports none.
func TotalRecords(page *Page) int {
	if page == nil {
		return 0
	}
	if page.TotalData > 0 {
		return int(page.TotalData)
	}
	return len(page.Rows)
}

// PageCount returns ceil(total/pageSize).
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

// ToFloat coerces a loosely typed feed value to a number.
// Strings have thousands separators removed before parsing.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
