package product

import (
	"testing"
)

func TestValidateCreateInputRejectsBadEngravingConfig(t *testing.T) {
	input := validCreateInput()
	input.SupportsEngraving = true
	input.EngravingMaxChars = 0

	if err := validateCreateInput(input); err == nil {
		t.Fatal("expected engraving config error")
	}
}

func TestValidateCreateInputRejectsBadVoltage(t *testing.T) {
	for _, voltage := range []string{"", "abc", "-3.7", "0"} {
		input := validCreateInput()
		input.Voltage = voltage
		if err := validateCreateInput(input); err == nil {
			t.Fatalf("expected voltage error for %q", voltage)
		}
	}
}

func TestValidateCreateInputAcceptsDecimalVoltage(t *testing.T) {
	input := validCreateInput()
	input.Voltage = "12.80"
	if err := validateCreateInput(input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCreateInputRejectsMaxQtyBelowMOQ(t *testing.T) {
	input := validCreateInput()
	input.MOQ = 50
	input.MaxQty = 10
	if err := validateCreateInput(input); err == nil {
		t.Fatal("expected max_qty error")
	}
}

func TestValidateDiscountTiers(t *testing.T) {
	cases := []struct {
		name    string
		tiers   []VolumeDiscountInput
		base    int
		wantErr bool
	}{
		{
			name:  "valid descending tiers",
			tiers: []VolumeDiscountInput{{MinQty: 100, UnitPriceCents: 400}, {MinQty: 500, UnitPriceCents: 350}},
			base:  450,
		},
		{
			name:    "duplicate min qty",
			tiers:   []VolumeDiscountInput{{MinQty: 100, UnitPriceCents: 400}, {MinQty: 100, UnitPriceCents: 350}},
			base:    450,
			wantErr: true,
		},
		{
			name:    "tier above base price",
			tiers:   []VolumeDiscountInput{{MinQty: 100, UnitPriceCents: 500}},
			base:    450,
			wantErr: true,
		},
		{
			name:    "min qty below two",
			tiers:   []VolumeDiscountInput{{MinQty: 1, UnitPriceCents: 400}},
			base:    450,
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateDiscountTiers(tc.tiers, tc.base)
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func validCreateInput() CreateProductInput {
	return CreateProductInput{
		SKU:         "CELL-18650-35",
		Title:       "18650 Cell 3500mAh",
		Chemistry:   "li_ion",
		Voltage:     "3.70",
		CapacityMAH: 3500,
		FormFactor:  "cylindrical",
		PriceCents:  450,
		MOQ:         10,
		Inventory:   InventoryInput{AvailableQty: 100},
		IsActive:    true,
	}
}
