package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// DefaultURL is the feed queried when a task has no override.
const DefaultURL = "http://127.0.0.1:4399/v2/ai-news"

// ErrSchemaMismatch is returned when the feed answers with an unrecognised document.
var ErrSchemaMismatch = errors.New("news feed: unexpected document shape")

// feedSchema describes {code:200, data:{date, news:[{title, detail, source, link}]}}.
const feedSchema = `{
  "type": "object",
  "required": ["code", "data"],
  "properties": {
    "code": {"const": 200},
    "data": {
      "type": "object",
      "required": ["date", "news"],
      "properties": {
        "date": {"type": "string"},
        "news": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["title", "detail", "source"],
            "properties": {
              "title": {"type": "string"},
              "detail": {"type": "string"},
              "source": {"type": "string"},
              "link": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

// Item is one news entry.
type Item struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Source string `json:"source"`
	Link   string `json:"link"`
}

// Digest is the data section of a feed document.
type Digest struct {
	Date string `json:"date"`
	News []Item `json:"news"`
}

type document struct {
	Code int    `json:"code"`
	Data Digest `json:"data"`
}

// StatusError reports a non-200 feed response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("news feed: status %d", e.StatusCode)
}

// Client fetches news digests.
type Client struct {
	http       *http.Client
	defaultURL string
	schema     *gojsonschema.Schema
}

// NewClient creates a feed client. An empty defaultURL falls back to DefaultURL.
func NewClient(timeout time.Duration, defaultURL string) (*Client, error) {
	if defaultURL == "" {
		defaultURL = DefaultURL
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(feedSchema))
	if err != nil {
		return nil, fmt.Errorf("compile news feed schema: %w", err)
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		defaultURL: defaultURL,
		schema:     schema,
	}, nil
}

// Fetch downloads and validates the feed at url, or the default feed when url is empty.
func (c *Client) Fetch(ctx context.Context, url string) (*Digest, error) {
	if strings.TrimSpace(url) == "" {
		url = c.defaultURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("news feed: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("news feed: read body: %w", err)
	}

	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(details, "; "))
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return &doc.Data, nil
}

// Render formats the digest as a numbered broadcast.
func (d Digest) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤖【AI新闻播报】%s\n\n", d.Date)
	for i, item := range d.News {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Title)
		fmt.Fprintf(&b, "   %s\n", item.Detail)
		fmt.Fprintf(&b, "   来源: %s\n", item.Source)
		link := strings.ReplaceAll(strings.TrimSpace(item.Link), "`", "")
		fmt.Fprintf(&b, "   链接: %s\n\n", link)
	}
	return b.String()
}
