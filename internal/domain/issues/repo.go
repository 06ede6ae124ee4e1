package issues

import (
	"context"

	"github.com/Spok95/sklad-bot/internal/api"
)

type Repo struct{ c *api.Client }

func NewRepo(c *api.Client) *Repo { return &Repo{c: c} }

func (r *Repo) List(ctx context.Context, page, limit int) (api.Page[Issue], error) {
	return api.List[Issue](ctx, r.c, api.ResIssues, page, limit)
}

func (r *Repo) Search(ctx context.Context, keyword string, page, limit int) (api.Page[Issue], error) {
	return api.Search[Issue](ctx, r.c, api.ResIssues, keyword, page, limit)
}

func (r *Repo) Create(ctx context.Context, req CreateRequest) error {
	return r.c.Create(ctx, api.ResIssues, req, nil)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	return r.c.Delete(ctx, api.ResIssues, id, nil)
}

// Get — выдача вместе с позициями.
func (r *Repo) Get(ctx context.Context, issueID int64) (Issue, error) {
	var out Issue
	err := r.c.Get(ctx, api.ReadPath(api.ResIssues, issueID), nil, &out)
	return out, err
}

func (r *Repo) Items(ctx context.Context, issueID int64) ([]Item, error) {
	is, err := r.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}
	return is.Items, nil
}

// ReturnItem отмечает одну позицию возвращённой. Частичный возврат —
// это несколько таких вызовов.
func (r *Repo) ReturnItem(ctx context.Context, itemID int64, req ReturnRequest) error {
	return r.c.Put(ctx, api.ReturnItemPath(itemID), req, nil)
}
