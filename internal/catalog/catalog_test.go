package catalog

import (
	"reflect"
	"testing"
)

func TestToppingCodesStableOrder(t *testing.T) {
	want := []string{"hawaiian", "pepperoni", "mexican"}
	if got := ToppingCodes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ToppingCodes() = %v, want %v", got, want)
	}
}

func TestNormalizeToken(t *testing.T) {
	for raw, want := range map[string]string{
		"  HAWAIIAN ": "hawaiian",
		"Yes":         "yes",
		"\tno\n":      "no",
		"":            "",
	} {
		if got := NormalizeToken(raw); got != want {
			t.Errorf("NormalizeToken(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestToppingName(t *testing.T) {
	name, ok := ToppingName("pepperoni")
	if !ok || name != "Pepperoni" {
		t.Fatalf("ToppingName(pepperoni) = %q, %v", name, ok)
	}
	if _, ok := ToppingName("margherita"); ok {
		t.Fatal("unknown topping must not validate")
	}
	// Tokens are expected to be normalized first; raw case must not match.
	if _, ok := ToppingName("Hawaiian"); ok {
		t.Fatal("un-normalized token must not match")
	}
}

func TestIsYesNo(t *testing.T) {
	if !IsYesNo("yes") || !IsYesNo("no") {
		t.Fatal("yes/no codes must validate")
	}
	if IsYesNo("maybe") || IsYesNo("") {
		t.Fatal("other tokens must not validate")
	}
}

func TestListsRenderChatMarkup(t *testing.T) {
	wantToppings := "[Hawaiian](command:hawaiian)\t[Pepperoni](command:pepperoni)\t[Mexican](command:mexican)"
	if got := ToppingsList(); got != wantToppings {
		t.Fatalf("ToppingsList() = %q, want %q", got, wantToppings)
	}
	wantYesNo := "[Yes](command:yes)\t[No](command:no)"
	if got := YesNoList(); got != wantYesNo {
		t.Fatalf("YesNoList() = %q, want %q", got, wantYesNo)
	}
}

func TestPrices(t *testing.T) {
	if PizzaPriceBytes != 10000 || ColaPriceBytes != 1000 {
		t.Fatalf("unexpected prices: pizza=%d cola=%d", PizzaPriceBytes, ColaPriceBytes)
	}
}
