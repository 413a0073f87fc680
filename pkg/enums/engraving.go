package enums

import "fmt"

// EngravingFont enumerates the nameplate fonts the storefront canvas supports.
type EngravingFont string

const (
	EngravingFontBlock   EngravingFont = "block"
	EngravingFontSerif   EngravingFont = "serif"
	EngravingFontScript  EngravingFont = "script"
	EngravingFontStencil EngravingFont = "stencil"
)

var validEngravingFonts = []EngravingFont{
	EngravingFontBlock,
	EngravingFontSerif,
	EngravingFontScript,
	EngravingFontStencil,
}

// String implements fmt.Stringer.
func (e EngravingFont) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EngravingFont.
func (e EngravingFont) IsValid() bool {
	for _, candidate := range validEngravingFonts {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEngravingFont converts raw input into an EngravingFont.
func ParseEngravingFont(value string) (EngravingFont, error) {
	for _, candidate := range validEngravingFonts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid engraving font %q", value)
}

// EngravingPosition places the nameplate on the battery casing.
type EngravingPosition string

const (
	EngravingPositionTop    EngravingPosition = "top"
	EngravingPositionCenter EngravingPosition = "center"
	EngravingPositionBottom EngravingPosition = "bottom"
)

var validEngravingPositions = []EngravingPosition{
	EngravingPositionTop,
	EngravingPositionCenter,
	EngravingPositionBottom,
}

// String implements fmt.Stringer.
func (e EngravingPosition) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EngravingPosition.
func (e EngravingPosition) IsValid() bool {
	for _, candidate := range validEngravingPositions {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEngravingPosition converts raw input into an EngravingPosition.
func ParseEngravingPosition(value string) (EngravingPosition, error) {
	for _, candidate := range validEngravingPositions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid engraving position %q", value)
}

// EngravingFinish selects the engraving treatment applied to the plate.
type EngravingFinish string

const (
	EngravingFinishLaser    EngravingFinish = "laser"
	EngravingFinishEmbossed EngravingFinish = "embossed"
	EngravingFinishFilled   EngravingFinish = "filled"
)

var validEngravingFinishes = []EngravingFinish{
	EngravingFinishLaser,
	EngravingFinishEmbossed,
	EngravingFinishFilled,
}

// IsValid reports whether the value is a known EngravingFinish.
func (e EngravingFinish) IsValid() bool {
	for _, candidate := range validEngravingFinishes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEngravingFinish converts raw input into an EngravingFinish.
func ParseEngravingFinish(value string) (EngravingFinish, error) {
	for _, candidate := range validEngravingFinishes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid engraving finish %q", value)
}
