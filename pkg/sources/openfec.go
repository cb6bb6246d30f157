package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
)

// OpenFECClient pages results out of the OpenFEC REST API.
type OpenFECClient struct {
	client  *http.Client
	logger  ectologger.Logger
	baseURL string
	apiKey  string
}

// NewOpenFECClient creates an API client.
func NewOpenFECClient(logger ectologger.Logger, baseURL, apiKey string, timeout time.Duration) *OpenFECClient {
	return &OpenFECClient{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Count   int `json:"count"`
}

type envelope struct {
	Pagination pagination       `json:"pagination"`
	Results    []map[string]any `json:"results"`
}

// FetchPages walks every page of an endpoint and hands each result batch to
// fn. Iteration stops on the first fn error.
func (c *OpenFECClient) FetchPages(ctx context.Context, path string, params url.Values, fn func(results []map[string]any) error) error {
	ctx, span := tracing.StartSpan(ctx, "sources.OpenFECClient.FetchPages")
	defer span.End()

	if params == nil {
		params = url.Values{}
	}

	page := 1
	for {
		params.Set("page", strconv.Itoa(page))
		if c.apiKey != "" {
			params.Set("api_key", c.apiKey)
		}

		env, err := c.get(ctx, path, params)
		if err != nil {
			return err
		}

		if len(env.Results) > 0 {
			if err := fn(env.Results); err != nil {
				return err
			}
		}

		if env.Pagination.Pages == 0 || page >= env.Pagination.Pages {
			return nil
		}
		page++
	}
}

func (c *OpenFECClient) get(ctx context.Context, path string, params url.Values) (*envelope, error) {
	fullURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"path": path}).Error("OpenFEC request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openfec returned status %d for %s", resp.StatusCode, path)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode openfec response: %w", err)
	}
	return &env, nil
}
