// Package client talks to the boxwise REST API. It backs the search
// controller's item source and preference store.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/search"
)

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

// Timeout reports whether the server or a proxy gave up on the request
func (e *APIError) Timeout() bool {
	return e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusGatewayTimeout
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

// Config configures the API client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// ItemsClient implements search.ItemSource and search.PreferenceStore over HTTP
type ItemsClient struct {
	client *resty.Client
	logger *slog.Logger
}

var (
	_ search.ItemSource      = (*ItemsClient)(nil)
	_ search.PreferenceStore = (*ItemsClient)(nil)
)

// NewItemsClient creates a client for the API at cfg.BaseURL. Requests are
// sent once; failed actions are re-triggered by the user.
func NewItemsClient(cfg Config, logger *slog.Logger) *ItemsClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/api/v1").
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	return &ItemsClient{
		client: client,
		logger: logger.With(slog.String("component", "items_client")),
	}
}

// QueryItems runs one item query
func (c *ItemsClient) QueryItems(ctx context.Context, q search.Query) (*search.Page, error) {
	var env envelope[[]domain.Item]

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(q.Values()).
		SetResult(&env).
		SetError(&env).
		Get("/items")
	if err := c.check(resp, err, &env.Message); err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}

	if env.Data == nil {
		env.Data = []domain.Item{}
	}

	c.logger.DebugContext(ctx, "queried items",
		slog.Int("page", q.Page),
		slog.Int("returned", len(env.Data)),
		slog.Int("total", env.Total))

	return &search.Page{Items: env.Data, Total: env.Total}, nil
}

// UpdateItemQuantity sets an item's quantity and returns the stored item
func (c *ItemsClient) UpdateItemQuantity(ctx context.Context, id uuid.UUID, quantity int) (*domain.Item, error) {
	var env envelope[*domain.Item]

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]int{"quantity": quantity}).
		SetResult(&env).
		SetError(&env).
		Patch("/items/" + id.String() + "/quantity")
	if err := c.check(resp, err, &env.Message); err != nil {
		if apiErr := (*APIError)(nil); errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("failed to update quantity: %w", err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("failed to update quantity: empty response")
	}

	return env.Data, nil
}

// GetPreference returns a stored preference value or domain.ErrPreferenceNotFound
func (c *ItemsClient) GetPreference(ctx context.Context, key string) (string, error) {
	var env envelope[domain.Preference]

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("key", key).
		SetResult(&env).
		SetError(&env).
		Get("/preferences/{key}")
	if err := c.check(resp, err, &env.Message); err != nil {
		if apiErr := (*APIError)(nil); errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", domain.ErrPreferenceNotFound
		}
		return "", fmt.Errorf("failed to get preference: %w", err)
	}

	return env.Data.Value, nil
}

// SetPreference stores a preference value
func (c *ItemsClient) SetPreference(ctx context.Context, key, value string) error {
	var env envelope[domain.Preference]

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("key", key).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"value": value}).
		SetResult(&env).
		SetError(&env).
		Put("/preferences/{key}")
	if err := c.check(resp, err, &env.Message); err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}

	return nil
}

func (c *ItemsClient) check(resp *resty.Response, err error, message *string) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Message: *message}
	}
	return nil
}
