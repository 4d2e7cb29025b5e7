// Package catalog holds the merchant's static menu: the available pizza
// toppings, the yes/no answer set for the cola upsell and the prices in
// bytes.  Lookups are case-insensitive on trimmed input.
package catalog

import (
	"fmt"
	"strings"
)

// Prices in bytes, the ledger's smallest currency unit.
const (
	PizzaPriceBytes int64 = 10000
	ColaPriceBytes  int64 = 1000
)

type topping struct {
	Code string
	Name string
}

// Order of these slices is the order options are rendered in, so it must
// stay stable.
var toppings = []topping{
	{Code: "hawaiian", Name: "Hawaiian"},
	{Code: "pepperoni", Name: "Pepperoni"},
	{Code: "mexican", Name: "Mexican"},
}

var yesNoAnswers = []topping{
	{Code: "yes", Name: "Yes"},
	{Code: "no", Name: "No"},
}

// NormalizeToken trims and lower-cases raw user input so it can be
// compared against catalog codes.
func NormalizeToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ToppingCodes returns the topping codes in display order.
func ToppingCodes() []string {
	codes := make([]string, 0, len(toppings))
	for _, t := range toppings {
		codes = append(codes, t.Code)
	}
	return codes
}

// ToppingName resolves a normalized token to its display name.  The
// second return value is false when the token is not a known topping.
func ToppingName(token string) (string, bool) {
	for _, t := range toppings {
		if t.Code == token {
			return t.Name, true
		}
	}
	return "", false
}

// IsYesNo reports whether a normalized token is a yes/no answer code.
func IsYesNo(token string) bool {
	for _, a := range yesNoAnswers {
		if a.Code == token {
			return true
		}
	}
	return false
}

// ToppingsList renders the selectable topping list in chat markup, one
// `[Name](command:code)` entry per topping joined by tabs.
func ToppingsList() string {
	items := make([]string, 0, len(toppings))
	for _, t := range toppings {
		items = append(items, fmt.Sprintf("[%s](command:%s)", t.Name, t.Code))
	}
	return strings.Join(items, "\t")
}

// YesNoList renders the selectable yes/no answers in chat markup.
func YesNoList() string {
	items := make([]string, 0, len(yesNoAnswers))
	for _, a := range yesNoAnswers {
		items = append(items, fmt.Sprintf("[%s](command:%s)", a.Name, a.Code))
	}
	return strings.Join(items, "\t")
}
