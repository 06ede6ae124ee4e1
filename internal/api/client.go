package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxErrorBody = 64 << 10

// Observer получает результат каждого запроса (метрики).
type Observer interface {
	ObserveAPI(method, route string, code int, d time.Duration)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *slog.Logger
	obs     Observer
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithLogger(l *slog.Logger) Option     { return func(c *Client) { c.log = l } }
func WithObserver(o Observer) Option       { return func(c *Client) { c.obs = o } }

// WithTimeout задаёт таймаут на копии http-клиента; переданный снаружи
// клиент не меняется.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			h := *c.http
			h.Timeout = d
			c.http = &h
		}
	}
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// File — скачанный файл выгрузки.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (c *Client) send(ctx context.Context, method, path string, q url.Values, body any) (*http.Response, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rt := route(path)
	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(method, rt, 0, elapsed)
		c.log.Warn("api request failed", "method", method, "route", rt, "request_id", reqID, "err", err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, rt, err)
	}
	c.observe(method, rt, resp.StatusCode, elapsed)
	c.log.Debug("api request", "method", method, "route", rt, "status", resp.StatusCode,
		"request_id", reqID, "took", elapsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, parseError(resp.StatusCode, raw)
	}
	return resp, nil
}

func (c *Client) observe(method, rt string, code int, d time.Duration) {
	if c.obs != nil {
		c.obs.ObserveAPI(method, rt, code, d)
	}
}

// Do выполняет JSON-запрос; out может быть nil (ответ игнорируется).
func (c *Client) Do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode %s: %w", route(path), err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, q url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, q, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, q url.Values, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, q, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Create POST api/<res>/create
func (c *Client) Create(ctx context.Context, res string, body, out any) error {
	return c.Post(ctx, CreatePath(res), nil, body, out)
}

// Delete DELETE api/<res>/delete/:id, body необязателен.
func (c *Client) Delete(ctx context.Context, res string, id int64, body any) error {
	return c.Do(ctx, http.MethodDelete, DeletePath(res, id), nil, body, nil)
}

type countResponse struct {
	TotalCount json.Number `json:"total_count"`
}

// Count GET api/excel/<res>?...&count=1 → total_count
func (c *Client) Count(ctx context.Context, res string, q url.Values) (int, error) {
	qq := cloneValues(q)
	qq.Set("count", "1")

	var out countResponse
	if err := c.Get(ctx, ExcelPath(res), qq, &out); err != nil {
		return 0, err
	}
	if out.TotalCount == "" {
		return 0, nil
	}
	n, err := out.TotalCount.Int64()
	if err != nil {
		return 0, fmt.Errorf("total_count: %w", err)
	}
	return int(n), nil
}

// Download GET api/excel/<res>?... — бинарный файл.
func (c *Client) Download(ctx context.Context, res string, q url.Values) (File, error) {
	qq := cloneValues(q)
	qq.Del("count")

	resp, err := c.send(ctx, http.MethodGet, ExcelPath(res), qq, nil)
	if err != nil {
		return File{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return File{}, fmt.Errorf("%w: read file: %w", ErrTransport, err)
	}

	f := File{ContentType: resp.Header.Get("Content-Type"), Data: data}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		f.Name = params["filename"]
	}
	if f.Name == "" {
		f.Name = fmt.Sprintf("%s_%s_%s.xlsx", res, qq.Get("start_date"), qq.Get("end_date"))
	}
	return f, nil
}

func cloneValues(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}
