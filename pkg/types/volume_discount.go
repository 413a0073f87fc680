package types

import (
	"database/sql/driver"
	"encoding/json"
)

// AppliedVolumeDiscount represents the volume tier snapshot saved on a cart item.
type AppliedVolumeDiscount struct {
	MinQty         int `json:"min_qty"`
	UnitPriceCents int `json:"unit_price_cents"`
	AmountCents    int `json:"amount_cents"`
}

// Value serializes the discount object to JSON.
func (a *AppliedVolumeDiscount) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan decodes a JSON object into the discount struct.
func (a *AppliedVolumeDiscount) Scan(value interface{}) error {
	if value == nil {
		*a = AppliedVolumeDiscount{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, a)
}
