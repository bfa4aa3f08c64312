package utils

import (
	"reflect"
	"testing"
)

func TestParseTaxRates(t *testing.T) {
	rates, err := parseTaxRates("VAT:800, CITY:150")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TaxRate{{Name: "VAT", RateBps: 800}, {Name: "CITY", RateBps: 150}}
	if !reflect.DeepEqual(rates, want) {
		t.Fatalf("expected %+v, got %+v", want, rates)
	}

	if _, err := parseTaxRates("VAT"); err == nil {
		t.Fatalf("expected error for missing basis points")
	}
	if _, err := parseTaxRates("VAT:-1"); err == nil {
		t.Fatalf("expected error for negative rate")
	}
}

func TestParseRoles(t *testing.T) {
	roles := parseRoles("admin=booking.read,reconciliation.run; finance=reconciliation.run;broken")

	if got := roles["admin"]; !reflect.DeepEqual(got, []string{"booking.read", "reconciliation.run"}) {
		t.Fatalf("unexpected admin permissions: %v", got)
	}
	if got := roles["finance"]; !reflect.DeepEqual(got, []string{"reconciliation.run"}) {
		t.Fatalf("unexpected finance permissions: %v", got)
	}
	if _, ok := roles["broken"]; ok {
		t.Fatalf("entries without '=' must be ignored")
	}
}
