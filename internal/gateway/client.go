package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"betledger/internal/bet"
	"betledger/internal/config"
	"betledger/internal/method"
	"betledger/internal/stats"
)

// Client talks to the bet-tracking REST gateway. It never retries: a failed
// call is reported once and left to the caller.
type Client struct {
	client *resty.Client
}

func NewClient(cfg config.GatewayConfig) *Client {
	host := strings.TrimSuffix(cfg.BaseURL, "/")

	client := resty.New().
		SetBaseURL(host).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetLogger(logrus.WithField("component", "gateway"))
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.Timeout.Duration > 0 {
		client.SetTimeout(cfg.Timeout.Duration)
	}
	return &Client{client: client}
}

// BaseURL is the gateway root every path is resolved against.
func (c *Client) BaseURL() string { return c.client.BaseURL }

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, httpMethod, path string, body, out any) error {
	req := c.client.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(httpMethod, path)
	if err != nil {
		return &NetworkError{Method: httpMethod, Path: path, Err: errors.Wrap(err, "request failed")}
	}

	if !resp.IsSuccess() {
		return &RequestError{
			Method:  httpMethod,
			Path:    path,
			Status:  resp.StatusCode(),
			Message: errorMessage(resp),
		}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(resp.Body())) == 0 {
		return errors.Errorf("%s %s: empty response body", httpMethod, path)
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "%s %s: decoding response", httpMethod, path)
	}
	return nil
}

// errorMessage prefers the {error} field, then the raw body, then the status text.
func errorMessage(resp *resty.Response) string {
	raw := resp.Body()
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(resp.StatusCode())
}

func betPath(id int64) string    { return "/bets/" + strconv.FormatInt(id, 10) }
func methodPath(id int64) string { return "/methods/" + strconv.FormatInt(id, 10) }

func (c *Client) ListBets(ctx context.Context) ([]bet.Bet, error) {
	var bets []bet.Bet
	if err := c.do(ctx, http.MethodGet, "/bets", nil, &bets); err != nil {
		return nil, err
	}
	return bets, nil
}

func (c *Client) CreateBet(ctx context.Context, f bet.Fields) (bet.Bet, error) {
	var created bet.Bet
	if err := c.do(ctx, http.MethodPost, "/bets", f, &created); err != nil {
		return bet.Bet{}, err
	}
	return created, nil
}

func (c *Client) UpdateBet(ctx context.Context, id int64, f bet.Fields) (bet.Bet, error) {
	var updated bet.Bet
	if err := c.do(ctx, http.MethodPut, betPath(id), f, &updated); err != nil {
		return bet.Bet{}, err
	}
	return updated, nil
}

func (c *Client) DeleteBet(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, betPath(id), nil, nil)
}

func (c *Client) ListMethods(ctx context.Context) ([]method.Method, error) {
	var methods []method.Method
	if err := c.do(ctx, http.MethodGet, "/methods", nil, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

func (c *Client) CreateMethod(ctx context.Context, name string) (method.Method, error) {
	var created method.Method
	if err := c.do(ctx, http.MethodPost, "/methods", method.Body{Name: name}, &created); err != nil {
		return method.Method{}, err
	}
	return created, nil
}

func (c *Client) UpdateMethod(ctx context.Context, id int64, name string) (method.Method, error) {
	var updated method.Method
	if err := c.do(ctx, http.MethodPut, methodPath(id), method.Body{Name: name}, &updated); err != nil {
		return method.Method{}, err
	}
	return updated, nil
}

func (c *Client) DeleteMethod(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, methodPath(id), nil, nil)
}

func (c *Client) Statistics(ctx context.Context) (stats.Snapshot, error) {
	var s stats.Snapshot
	if err := c.do(ctx, http.MethodGet, "/statistics", nil, &s); err != nil {
		return stats.Snapshot{}, err
	}
	return s, nil
}

// Health checks the gateway's /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

var _ method.Backend = (*Client)(nil)
