package youtube

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/models"
)

// MaxResults is the fixed page size; only the first page is ever requested.
const MaxResults = 50

type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// NewClient returns a search client for the YouTube Data API. An empty
// endpoint uses the library default.
func NewClient(apiKey, endpoint string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) service(ctx context.Context) (*yt.Service, error) {
	// The key travels as a query parameter on each call so a custom
	// http.Client never triggers a credentials lookup.
	opts := []option.ClientOption{option.WithHTTPClient(c.http)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	return yt.NewService(ctx, opts...)
}

// Search runs one search.list call restricted to videos and returns the
// items in provider order.
func (c *Client) Search(ctx context.Context, query string) ([]models.Item, error) {
	const op = "Client.Search"

	svc, err := c.service(ctx)
	if err != nil {
		return nil, apperrors.Provider(op, err, "failed to create YouTube service")
	}

	resp, err := svc.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		MaxResults(MaxResults).
		Context(ctx).
		Do(googleapi.QueryParameter("key", c.apiKey))
	if err != nil {
		return nil, apperrors.Provider(op, err, providerMessage(err))
	}

	items := make([]models.Item, 0, len(resp.Items))
	for _, it := range resp.Items {
		var item models.Item
		if it.Id != nil {
			item.Kind = it.Id.Kind
			item.ID = it.Id.VideoId
		}
		if it.Snippet != nil {
			item.Title = it.Snippet.Title
			if th := it.Snippet.Thumbnails; th != nil && th.High != nil {
				item.ThumbnailURL = th.High.Url
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func providerMessage(err error) string {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return "search request failed"
	}
	if apiErr.Message != "" {
		return fmt.Sprintf("youtube status %d: %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Sprintf("youtube status %d", apiErr.Code)
}
