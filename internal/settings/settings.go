// Package settings stores keyed company configuration rows.
//
// Rows are never created implicitly: a key must be initialised before it can be read or updated.
package settings

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultKey is the configuration row used by the back office.
const DefaultKey = "default"

// Settings is one configuration row.
type Settings struct {
	Key                string          `json:"key"`
	CompanyName        string          `json:"companyName"`
	CNPJ               string          `json:"cnpj"`
	MonthlyRevenueGoal decimal.Decimal `json:"monthlyRevenueGoal"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// Input carries the editable fields.
type Input struct {
	CompanyName        string          `json:"companyName" validate:"max=200"`
	CNPJ               string          `json:"cnpj" validate:"max=32"`
	MonthlyRevenueGoal decimal.Decimal `json:"monthlyRevenueGoal"`
}

func cacheKey(key string) string {
	return "settings:" + key
}
