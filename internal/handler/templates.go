package handler

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/dokan/internal/domain"
)

var currencySymbols = map[string]string{
	"BDT": "৳",
	"USD": "$",
	"EUR": "€",
	"INR": "₹",
}

// FormatMoney renders an amount with two decimals and the currency symbol,
// falling back to the ISO code for unknown currencies.
func FormatMoney(amount decimal.Decimal, currency string) string {
	symbol, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok {
		symbol = currency + " "
		if currency == "" {
			symbol = currencySymbols["BDT"]
		}
	}
	return symbol + amount.StringFixed(2)
}

// dict builds a map from alternating keys and values so a partial can be
// given more than one argument.
func dict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"year": func() int {
			return time.Now().Year()
		},
		"money": FormatMoney,
		"mul": func(d decimal.Decimal, n int) decimal.Decimal {
			return d.Mul(decimal.NewFromInt(int64(n)))
		},
		"zoneLabel": func(z domain.DeliveryZone) string {
			return z.Label()
		},
		"join": strings.Join,
		"fieldError": func(fields map[string]string, name string) string {
			return fields[name]
		},
		"dict": dict,
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2 Jan 2006")
		},
	}
}
