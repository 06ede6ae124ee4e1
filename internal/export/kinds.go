package export

import "github.com/Spok95/sklad-bot/internal/api"

// Dimension — необязательный фильтр выгрузки (категория/поставщик/прораб/объект).
type Dimension struct {
	Param    string // имя параметра запроса, напр. supplier_id
	Title    string
	Resource string // откуда брать справочник
}

type Kind struct {
	Resource  string // api/excel/<Resource>
	Title     string
	Dimension *Dimension
}

var (
	Kassabank = Kind{Resource: api.ExcelKassabank, Title: "Касса"}
	Arrivals  = Kind{Resource: api.ExcelArrivals, Title: "Приходы"}
	Payments  = Kind{
		Resource:  api.ExcelPayments,
		Title:     "Оплаты",
		Dimension: &Dimension{Param: "supplier_id", Title: "Поставщик", Resource: api.ResSuppliers},
	}
	Issues = Kind{
		Resource:  api.ExcelIssues,
		Title:     "Выдача материалов",
		Dimension: &Dimension{Param: "foreman_id", Title: "Прораб", Resource: api.ResForemen},
	}
	WriteOffs = Kind{
		Resource:  api.ExcelWriteOffs,
		Title:     "Списания",
		Dimension: &Dimension{Param: "object_id", Title: "Объект", Resource: api.ResObjects},
	}
	Kitchen = Kind{
		Resource:  api.ExcelKitchen,
		Title:     "Расходы кухни",
		Dimension: &Dimension{Param: "category_id", Title: "Категория", Resource: api.ResKitchenCategories},
	}
)

var kinds = map[string]Kind{
	Kassabank.Resource: Kassabank,
	Arrivals.Resource:  Arrivals,
	Payments.Resource:  Payments,
	Issues.Resource:    Issues,
	WriteOffs.Resource: WriteOffs,
	Kitchen.Resource:   Kitchen,
}

func Lookup(resource string) (Kind, bool) {
	k, ok := kinds[resource]
	return k, ok
}
