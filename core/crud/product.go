package crud

import (
	"math"

	"github.com/spf13/cast"
)

// Product is the catalog entity stored in the products table.
type Product struct{}

var _ Definition = Product{}

func (Product) Name() string  { return "Product" }
func (Product) Table() string { return "products" }

func (Product) Fillable() []string {
	return []string{"name", "description", "price", "category", "stock_quantity", "is_active"}
}

func (Product) CreateRules() Rules {
	return Rules{
		"name":           "required,string,max=255",
		"description":    "nullable,string,max=1000",
		"price":          "required,numeric,min=0",
		"category":       "required,string,max=100",
		"stock_quantity": "required,integer,min=0",
		"is_active":      "bool",
	}
}

func (Product) UpdateRules() Rules {
	return Rules{
		"name":           "sometimes,required,string,max=255",
		"description":    "nullable,string,max=1000",
		"price":          "sometimes,required,numeric,min=0",
		"category":       "sometimes,required,string,max=100",
		"stock_quantity": "sometimes,required,integer,min=0",
		"is_active":      "bool",
	}
}

// Cast rounds price to cents and normalizes stock_quantity & is_active.
func (Product) Cast(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		if v == nil {
			out[k] = nil
			continue
		}
		switch k {
		case "price":
			out[k] = math.Round(cast.ToFloat64(v)*100) / 100
		case "stock_quantity":
			out[k] = cast.ToInt64(v)
		case "is_active":
			out[k] = cast.ToBool(v)
		default:
			out[k] = v
		}
	}
	return out
}
