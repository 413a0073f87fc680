package engraving

import (
	"strings"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Plate margins and line spacing, in millimeters.
var (
	plateMarginMM  = decimal.NewFromFloat(2.0)
	lineSpacingMM  = decimal.NewFromFloat(1.0)
	minPlateWidth  = decimal.NewFromFloat(20.0)
	minPlateHeight = decimal.NewFromFloat(8.0)
)

// Layout is the nameplate rendering spec the client canvas draws from. All
// distances are millimeters encoded as decimal strings.
type Layout struct {
	PlateWidthMM  string    `json:"plate_width_mm"`
	PlateHeightMM string    `json:"plate_height_mm"`
	Font          string    `json:"font"`
	Finish        string    `json:"finish"`
	Position      string    `json:"position"`
	Lines         []LineBox `json:"lines"`
	CharCount     int       `json:"char_count"`
	FeeCents      int       `json:"fee_cents"`
}

// LineBox is one rendered line of text on the plate.
type LineBox struct {
	Text       string `json:"text"`
	XMM        string `json:"x_mm"`
	YMM        string `json:"y_mm"`
	WidthMM    string `json:"width_mm"`
	HeightMM   string `json:"height_mm"`
	FontSizePt int    `json:"font_size_pt"`
}

// Preview validates the spec and computes the plate layout plus fee.
func Preview(spec types.EngravingSpec, product *models.Product) (*Layout, error) {
	if err := Validate(spec, product); err != nil {
		return nil, err
	}

	lines := splitLines(strings.TrimSpace(spec.Text))
	size := decimal.NewFromInt(int64(spec.SizePt))
	lineHeight := size.Mul(mmPerPt)
	charWidth := size.Mul(mmPerPt).Mul(widthFactor(spec.Font))

	// Plate sizes to the widest line plus margins.
	var widest decimal.Decimal
	for _, line := range lines {
		w := charWidth.Mul(decimal.NewFromInt(int64(len([]rune(line)))))
		if w.GreaterThan(widest) {
			widest = w
		}
	}

	plateWidth := widest.Add(plateMarginMM.Mul(decimal.NewFromInt(2)))
	if plateWidth.LessThan(minPlateWidth) {
		plateWidth = minPlateWidth
	}
	textHeight := lineHeight.Mul(decimal.NewFromInt(int64(len(lines)))).
		Add(lineSpacingMM.Mul(decimal.NewFromInt(int64(len(lines) - 1))))
	plateHeight := textHeight.Add(plateMarginMM.Mul(decimal.NewFromInt(2)))
	if plateHeight.LessThan(minPlateHeight) {
		plateHeight = minPlateHeight
	}

	startY := blockStartY(spec.Position, plateHeight, textHeight)

	boxes := make([]LineBox, 0, len(lines))
	y := startY
	for _, line := range lines {
		w := charWidth.Mul(decimal.NewFromInt(int64(len([]rune(line)))))
		x := plateWidth.Sub(w).Div(decimal.NewFromInt(2))
		boxes = append(boxes, LineBox{
			Text:       line,
			XMM:        x.Round(2).String(),
			YMM:        y.Round(2).String(),
			WidthMM:    w.Round(2).String(),
			HeightMM:   lineHeight.Round(2).String(),
			FontSizePt: spec.SizePt,
		})
		y = y.Add(lineHeight).Add(lineSpacingMM)
	}

	return &Layout{
		PlateWidthMM:  plateWidth.Round(2).String(),
		PlateHeightMM: plateHeight.Round(2).String(),
		Font:          string(spec.Font),
		Finish:        string(spec.Finish),
		Position:      string(spec.Position),
		Lines:         boxes,
		CharCount:     CharCount(spec.Text),
		FeeCents:      Fee(spec, product),
	}, nil
}

func widthFactor(font interface{ String() string }) decimal.Decimal {
	if factor, ok := fontWidthFactor[font.String()]; ok {
		return factor
	}
	return fontWidthFactor["block"]
}

func blockStartY(position interface{ String() string }, plateHeight, textHeight decimal.Decimal) decimal.Decimal {
	switch position.String() {
	case "top":
		return plateMarginMM
	case "bottom":
		return plateHeight.Sub(plateMarginMM).Sub(textHeight)
	default:
		return plateHeight.Sub(textHeight).Div(decimal.NewFromInt(2))
	}
}
