package engraving

import (
	"strings"
	"unicode"

	"github.com/voltline/voltline-backend/pkg/db/models"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	// MinSizePt and MaxSizePt bound the engraving font size buyers may pick.
	MinSizePt = 6
	MaxSizePt = 24

	maxLines = 3
)

// mmPerPt converts typographic points to millimeters on the nameplate.
var mmPerPt = decimal.NewFromFloat(0.3528)

// Glyph width as a fraction of the font size. Script is narrow, stencil wide.
var fontWidthFactor = map[string]decimal.Decimal{
	"block":   decimal.NewFromFloat(0.60),
	"serif":   decimal.NewFromFloat(0.55),
	"script":  decimal.NewFromFloat(0.50),
	"stencil": decimal.NewFromFloat(0.65),
}

// Validate checks the spec against the product's engraving configuration.
// The character budget counts engravable characters, not whitespace padding.
func Validate(spec types.EngravingSpec, product *models.Product) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if !product.SupportsEngraving {
		return pkgerrors.New(pkgerrors.CodeValidation, "product does not support engraving")
	}

	text := strings.TrimSpace(spec.Text)
	if text == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "engraving text is required")
	}
	if CharCount(text) > product.EngravingMaxChars {
		return pkgerrors.New(pkgerrors.CodeValidation, "engraving text exceeds the product character limit")
	}
	if len(splitLines(text)) > maxLines {
		return pkgerrors.New(pkgerrors.CodeValidation, "engraving text exceeds the line limit")
	}
	for _, r := range text {
		if r == '\n' {
			continue
		}
		if !unicode.IsPrint(r) || r > unicode.MaxASCII {
			return pkgerrors.New(pkgerrors.CodeValidation, "engraving text must be printable ASCII")
		}
	}

	if !spec.Font.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown engraving font")
	}
	if !spec.Position.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown engraving position")
	}
	if !spec.Finish.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown engraving finish")
	}
	if spec.SizePt < MinSizePt || spec.SizePt > MaxSizePt {
		return pkgerrors.New(pkgerrors.CodeValidation, "engraving size out of range")
	}
	return nil
}

// Fee computes the engraving charge in cents: setup fee plus a per-character
// fee over the engravable character count.
func Fee(spec types.EngravingSpec, product *models.Product) int {
	chars := decimal.NewFromInt(int64(CharCount(strings.TrimSpace(spec.Text))))
	perChar := decimal.NewFromInt(int64(product.EngravingPerCharFeeCents))
	setup := decimal.NewFromInt(int64(product.EngravingSetupFeeCents))
	return int(setup.Add(perChar.Mul(chars)).IntPart())
}

// CharCount counts billable characters: everything except whitespace.
func CharCount(text string) int {
	count := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		count++
	}
	return count
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
