package api

import "context"

// Page — ответ list/search: {result: T[], pages: number}
type Page[T any] struct {
	Result []T `json:"result"`
	Pages  int `json:"pages"`
}

// List GET api/<res>/list?page&limit
func List[T any](ctx context.Context, c *Client, res string, page, limit int) (Page[T], error) {
	var out Page[T]
	err := c.Get(ctx, ListPath(res), pageQuery(page, limit), &out)
	return out, err
}

// Search POST api/<res>/search?keyword&page&limit
func Search[T any](ctx context.Context, c *Client, res, keyword string, page, limit int) (Page[T], error) {
	q := pageQuery(page, limit)
	q.Set("keyword", keyword)

	var out Page[T]
	err := c.Post(ctx, SearchPath(res), q, nil, &out)
	return out, err
}
