package domain

import "testing"

func fptr(v float64) *float64 { return &v }

func iptr(v int) *int { return &v }

// Каждое поле из ComparisonFields действительно участвует в сравнении,
// и сравнение не знает полей сверх этого списка.
func TestComparisonFieldsDriveComparisonEqual(t *testing.T) {
	base := Listing{Price: fptr(500000), PricePerSqrMeter: fptr(10000)}

	mutations := map[string]func(*Listing){
		"price":               func(l *Listing) { l.Price = fptr(520000) },
		"price_per_sqr_meter": func(l *Listing) { l.PricePerSqrMeter = fptr(10400) },
	}
	if len(mutations) != len(ComparisonFields) {
		t.Fatalf("policy names %d fields, comparison covers %d", len(ComparisonFields), len(mutations))
	}

	for _, field := range ComparisonFields {
		mutate, ok := mutations[field]
		if !ok {
			t.Fatalf("field %q is named in the policy but not compared", field)
		}
		changed := base
		mutate(&changed)
		if ComparisonEqual(base, changed) {
			t.Errorf("change of %q must produce a new version", field)
		}
	}
}

func TestComparisonEqualIgnoresOtherFieldsAndAbsence(t *testing.T) {
	title := "Mieszkanie 3-pokojowe"
	a := Listing{Price: fptr(500000), PricePerSqrMeter: fptr(10000)}
	b := a
	b.Title = &title
	b.Rooms = iptr(3)
	if !ComparisonEqual(a, b) {
		t.Error("fields outside the comparison set must not affect equality")
	}

	if !ComparisonEqual(Listing{}, Listing{}) {
		t.Error("two absent values must compare equal")
	}
	if ComparisonEqual(Listing{Price: fptr(1), PricePerSqrMeter: fptr(1)}, Listing{PricePerSqrMeter: fptr(1)}) {
		t.Error("present vs absent must compare unequal")
	}
}
