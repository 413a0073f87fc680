package types

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voltline/voltline-backend/pkg/enums"
)

// EngravingSpec is the buyer-chosen nameplate customization persisted as JSONB
// on cart and order lines.
type EngravingSpec struct {
	Text     string                  `json:"text"`
	Font     enums.EngravingFont     `json:"font"`
	SizePt   int                     `json:"size_pt"`
	Position enums.EngravingPosition `json:"position"`
	Finish   enums.EngravingFinish   `json:"finish"`
}

// Fingerprint returns a stable digest of the spec. Cart lines for the same
// product dedupe on it, so the same product with two different engravings
// stays two lines.
func (e *EngravingSpec) Fingerprint() string {
	if e == nil {
		return ""
	}
	canonical := strings.Join([]string{
		e.Text,
		string(e.Font),
		fmt.Sprintf("%d", e.SizePt),
		string(e.Position),
		string(e.Finish),
	}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:16])
}

// Value serializes the spec to JSON.
func (e *EngravingSpec) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

// Scan decodes a JSON object into the spec.
func (e *EngravingSpec) Scan(value interface{}) error {
	if value == nil {
		*e = EngravingSpec{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, e)
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
