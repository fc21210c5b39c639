// Package hostclient talks to a running host over its HTTP surface.
package hostclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"FitTrack-Bridge/internal/host"
	"FitTrack-Bridge/internal/relay"
)

var ErrStreamUnsupported = errors.New("host did not return an event stream")

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	client *resty.Client
	stream *resty.Client
}

// CommandResult is the response to start and stop.
type CommandResult struct {
	OK        bool `json:"ok"`
	Connected bool `json:"connected"`
}

// StatsResult is the response to stats.
type StatsResult struct {
	Stats       host.Stats `json:"stats"`
	Subscribers int        `json:"subscribers"`
}

// Event is one server-sent event from the stream.
type Event struct {
	Name string
	Data json.RawMessage
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://127.0.0.1:8095"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		client: resty.New().SetBaseURL(base).SetTimeout(cfg.Timeout),
		// The stream stays open until the caller cancels.
		stream: resty.New().SetBaseURL(base),
	}
}

func (c *Client) Start(ctx context.Context) (CommandResult, error) {
	var out CommandResult
	err := c.do(ctx, http.MethodPost, "/api/workout/start", &out)
	return out, err
}

func (c *Client) Stop(ctx context.Context) (CommandResult, error) {
	var out CommandResult
	err := c.do(ctx, http.MethodPost, "/api/workout/stop", &out)
	return out, err
}

func (c *Client) Refresh(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/workout/refresh", nil)
}

func (c *Client) Connected(ctx context.Context) (bool, error) {
	var out struct {
		Connected bool `json:"connected"`
	}
	err := c.do(ctx, http.MethodGet, "/api/workout/connected", &out)
	return out.Connected, err
}

func (c *Client) Stats(ctx context.Context) (StatsResult, error) {
	var out StatsResult
	err := c.do(ctx, http.MethodGet, "/api/workout/stats", &out)
	return out, err
}

func (c *Client) Attempts(ctx context.Context) ([]relay.Attempt, error) {
	var out struct {
		Attempts []relay.Attempt `json:"attempts"`
	}
	err := c.do(ctx, http.MethodGet, "/api/workout/attempts", &out)
	return out.Attempts, err
}

// Watch streams events to fn until ctx is cancelled, the host closes the
// stream or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(Event) error) error {
	resp, err := c.stream.R().
		SetContext(ctx).
		SetHeader("Accept", "text/event-stream").
		SetDoNotParseResponse(true).
		Get("/api/workout/stream")
	if err != nil {
		return fmt.Errorf("stream request: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("http %d", resp.StatusCode())
	}
	if !strings.HasPrefix(resp.Header().Get("Content-Type"), "text/event-stream") {
		return ErrStreamUnsupported
	}

	sc := bufio.NewScanner(body)
	var ev Event
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = json.RawMessage(strings.TrimPrefix(line, "data: "))
		case line == "" && ev.Name != "":
			if err := fn(ev); err != nil {
				return err
			}
			ev = Event{}
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req := c.client.R().SetContext(ctx)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return mapHTTPError(resp)
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(resp.Body()))
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode(), msg)
}
