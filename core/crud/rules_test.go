package crud

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ujenzi/core"
)

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate, translator
}

func fieldMessages(t *testing.T, err error) map[string][]string {
	t.Helper()
	require.Error(t, err)
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "want *core.ValidationError, got %T", err)
	return vErr.FieldMessages()
}

func TestRules_Validate_productCreate(t *testing.T) {
	validate, translator := newValidator()
	rules := Product{}.CreateRules()

	valid := Record{"name": "Cement", "price": 12.5, "category": "materials", "stock_quantity": float64(40)}
	assert.NoError(t, rules.Validate(validate, translator, valid))
	assert.NoError(t, rules.Validate(validate, translator, Record{
		"name": "Drill", "price": "49.99", "category": "tools", "stock_quantity": "10",
	}))

	tests := []struct {
		name       string
		payload    Record
		wantFields []string
	}{
		{name: "empty payload", payload: Record{}, wantFields: []string{"category", "name", "price", "stock_quantity"}},
		{
			name:       "negative price",
			payload:    Record{"name": "Cement", "price": -1.0, "category": "materials", "stock_quantity": float64(1)},
			wantFields: []string{"price"},
		},
		{
			name:       "negative numeric string",
			payload:    Record{"name": "Drill", "price": "-49.99", "category": "tools", "stock_quantity": "-10"},
			wantFields: []string{"price", "stock_quantity"},
		},
		{
			name:       "non numeric string",
			payload:    Record{"name": "Drill", "price": "cheap", "category": "tools", "stock_quantity": "10.5"},
			wantFields: []string{"price", "stock_quantity"},
		},
		{
			name:       "fractional stock",
			payload:    Record{"name": "Cement", "price": 1.0, "category": "materials", "stock_quantity": 1.5},
			wantFields: []string{"stock_quantity"},
		},
		{
			name:       "name not a string",
			payload:    Record{"name": 42.0, "price": 1.0, "category": "materials", "stock_quantity": float64(1)},
			wantFields: []string{"name"},
		},
		{
			name:       "null name",
			payload:    Record{"name": nil, "price": 1.0, "category": "materials", "stock_quantity": float64(1)},
			wantFields: []string{"name"},
		},
		{
			name:       "bad is_active",
			payload:    Record{"name": "Cement", "price": 1.0, "category": "materials", "stock_quantity": float64(1), "is_active": "maybe"},
			wantFields: []string{"is_active"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := fieldMessages(t, rules.Validate(validate, translator, tt.payload))
			for _, fld := range tt.wantFields {
				assert.Contains(t, msgs, fld)
			}
			assert.Len(t, msgs, len(tt.wantFields))
		})
	}
}

func TestRules_Validate_messages(t *testing.T) {
	validate, translator := newValidator()

	msgs := fieldMessages(t, Product{}.CreateRules().Validate(validate, translator, Record{
		"name": "Cement", "category": "materials", "stock_quantity": float64(1),
	}))
	assert.Equal(t, map[string][]string{"price": {"price is required"}}, msgs)

	msgs = fieldMessages(t, Product{}.CreateRules().Validate(validate, translator, Record{
		"name": "Cement", "price": 1.0, "category": "materials", "stock_quantity": 2.5,
	}))
	assert.Equal(t, map[string][]string{"stock_quantity": {"stock_quantity must be an integer"}}, msgs)

	msgs = fieldMessages(t, Product{}.CreateRules().Validate(validate, translator, Record{
		"name": "Cement", "price": "-1", "category": "materials", "stock_quantity": "-3",
	}))
	assert.Equal(t, []string{"price must be 0 or greater"}, msgs["price"])
	assert.Equal(t, []string{"stock_quantity must be 0 or greater"}, msgs["stock_quantity"])
}

func TestRules_Validate_sometimesAndNullable(t *testing.T) {
	validate, translator := newValidator()
	rules := Product{}.UpdateRules()

	// absent fields are skipped on update
	assert.NoError(t, rules.Validate(validate, translator, Record{}))
	assert.NoError(t, rules.Validate(validate, translator, Record{"description": nil}))
	assert.NoError(t, rules.Validate(validate, translator, Record{"price": "19.99", "is_active": 0.0}))

	// present fields are validated
	msgs := fieldMessages(t, rules.Validate(validate, translator, Record{"price": nil, "name": ""}))
	assert.Contains(t, msgs, "price")
	assert.Contains(t, msgs, "name")
}

func TestProduct_Cast(t *testing.T) {
	got := Product{}.Cast(Record{
		"name":           "Cement",
		"price":          "12.346",
		"stock_quantity": float64(7),
		"is_active":      "0",
		"description":    nil,
	})
	assert.Equal(t, Record{
		"name":           "Cement",
		"price":          12.35,
		"stock_quantity": int64(7),
		"is_active":      false,
		"description":    nil,
	}, got)
}
