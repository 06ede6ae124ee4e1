package api

import (
	"fmt"
	"strconv"
	"strings"
)

// Ресурсы REST API. Все пути относительны base_url.
const (
	ResBalance           = "balance"
	ResArrivals          = "prixod"
	ResPayments          = "payments"
	ResIssues            = "material-issues"
	ResWriteOffs         = "write-offs"
	ResKitchen           = "kitchen-expenses"
	ResKitchenCategories = "kitchen-categories"
	ResMaterials         = "materials"
	ResForemen           = "foremen"
	ResSuppliers         = "suppliers"
	ResObjects           = "objects"
)

// Ресурсы выгрузки Excel (GET api/excel/<res>).
const (
	ExcelKassabank = "kassabank"
	ExcelArrivals  = "prixod"
	ExcelPayments  = "payments"
	ExcelIssues    = "material-issues"
	ExcelWriteOffs = "write-offs"
	ExcelKitchen   = "kitchen-expenses"
)

const (
	PathBalanceAvailable = "api/balance/available"
	PathDollarRate       = "api/dollar-rate"
	PathDollarRateUpdate = "api/dollar-rate/update"
)

func ListPath(res string) string   { return "api/" + res + "/list" }
func SearchPath(res string) string { return "api/" + res + "/search" }
func CreatePath(res string) string { return "api/" + res + "/create" }
func ExcelPath(res string) string  { return "api/excel/" + res }

func DeletePath(res string, id int64) string {
	return fmt.Sprintf("api/%s/delete/%d", res, id)
}

func ReadPath(res string, id int64) string {
	return fmt.Sprintf("api/%s/read/%d", res, id)
}

// ReturnItemPath — возврат одной позиции выдачи.
func ReturnItemPath(itemID int64) string {
	return fmt.Sprintf("api/%s/return/%d", ResIssues, itemID)
}

// route — путь без идентификаторов, для меток метрик и логов.
func route(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
