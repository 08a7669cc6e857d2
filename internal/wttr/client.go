package wttr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gowttr/app/internal/units"
)

const (
	defaultBaseURL = "https://wttr.in"
	defaultTimeout = 10 * time.Second
)

type ClientOption func(*Client)

// Client - HTTP-клиент wttr.in. Ровно один исходящий запрос на вызов,
// никаких повторов - политика ретраев остаётся за вызывающей стороной.
type Client struct {
	baseURL string
	http    *http.Client
}

func BaseURLOption(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func TimeoutOption(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Current запрашивает текущие условия и прогноз для одного города.
// Имя города экранируется в пути, система единиц передаётся флагом m/u.
func (c *Client) Current(ctx context.Context, city string, system units.System) (*Report, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("bad base url %s: %w", c.baseURL, err)
	}
	u.Path += "/" + city

	q := u.Query()
	q.Set("format", "j1")
	if system == units.Imperial {
		q.Set("u", "")
	} else {
		q.Set("m", "")
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building wttr.in request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wttr.in request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("wttr.in returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading wttr.in response: %w", err)
	}

	var report Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("unmarshalling wttr.in response: %w", err)
	}

	return &report, nil
}
