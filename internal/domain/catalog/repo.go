package catalog

import (
	"context"

	"github.com/Spok95/sklad-bot/internal/api"
)

// Refs — справочник одного ресурса (foremen, suppliers, objects, kitchen-categories).
type Refs struct {
	c   *api.Client
	res string
}

func NewRefs(c *api.Client, res string) *Refs { return &Refs{c: c, res: res} }

func (r *Refs) Resource() string { return r.res }

func (r *Refs) List(ctx context.Context, page, limit int) (api.Page[Ref], error) {
	return api.List[Ref](ctx, r.c, r.res, page, limit)
}

func (r *Refs) Search(ctx context.Context, keyword string, page, limit int) (api.Page[Ref], error) {
	return api.Search[Ref](ctx, r.c, r.res, keyword, page, limit)
}

type Materials struct{ c *api.Client }

func NewMaterials(c *api.Client) *Materials { return &Materials{c: c} }

func (r *Materials) List(ctx context.Context, page, limit int) (api.Page[Material], error) {
	return api.List[Material](ctx, r.c, api.ResMaterials, page, limit)
}

func (r *Materials) Search(ctx context.Context, keyword string, page, limit int) (api.Page[Material], error) {
	return api.Search[Material](ctx, r.c, api.ResMaterials, keyword, page, limit)
}
