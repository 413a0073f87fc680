package types

import (
	"testing"

	"github.com/voltline/voltline-backend/pkg/enums"
)

func TestEngravingSpecFingerprintStable(t *testing.T) {
	spec := &EngravingSpec{
		Text:     "ACME FLEET 042",
		Font:     enums.EngravingFontBlock,
		SizePt:   12,
		Position: enums.EngravingPositionCenter,
		Finish:   enums.EngravingFinishLaser,
	}

	first := spec.Fingerprint()
	second := spec.Fingerprint()
	if first == "" {
		t.Fatalf("expected non-empty fingerprint")
	}
	if first != second {
		t.Fatalf("fingerprint not stable: %q vs %q", first, second)
	}
}

func TestEngravingSpecFingerprintDistinguishesFields(t *testing.T) {
	base := EngravingSpec{
		Text:     "ACME",
		Font:     enums.EngravingFontBlock,
		SizePt:   12,
		Position: enums.EngravingPositionCenter,
		Finish:   enums.EngravingFinishLaser,
	}

	variants := []EngravingSpec{base, base, base, base}
	variants[0].Text = "ACME2"
	variants[1].Font = enums.EngravingFontScript
	variants[2].SizePt = 14
	variants[3].Finish = enums.EngravingFinishEmbossed

	for i := range variants {
		if variants[i].Fingerprint() == base.Fingerprint() {
			t.Fatalf("variant %d collided with base fingerprint", i)
		}
	}
}

func TestEngravingSpecFingerprintNil(t *testing.T) {
	var spec *EngravingSpec
	if got := spec.Fingerprint(); got != "" {
		t.Fatalf("expected empty fingerprint for nil spec, got %q", got)
	}
}

func TestEngravingSpecScanRoundTrip(t *testing.T) {
	original := &EngravingSpec{
		Text:     "VOLT-7",
		Font:     enums.EngravingFontStencil,
		SizePt:   10,
		Position: enums.EngravingPositionBottom,
		Finish:   enums.EngravingFinishFilled,
	}

	raw, err := original.Value()
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	var decoded EngravingSpec
	if err := decoded.Scan(raw); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if decoded != *original {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, *original)
	}
}
