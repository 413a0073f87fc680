package enums

import "fmt"

// BatteryChemistry maps to the battery_chemistry enum in Postgres.
type BatteryChemistry string

const (
	ChemistryLiIon    BatteryChemistry = "li_ion"
	ChemistryLiFePO4  BatteryChemistry = "lifepo4"
	ChemistryNiMH     BatteryChemistry = "nimh"
	ChemistryLeadAcid BatteryChemistry = "lead_acid"
	ChemistryAlkaline BatteryChemistry = "alkaline"
)

var validBatteryChemistries = []BatteryChemistry{
	ChemistryLiIon,
	ChemistryLiFePO4,
	ChemistryNiMH,
	ChemistryLeadAcid,
	ChemistryAlkaline,
}

// String implements fmt.Stringer.
func (b BatteryChemistry) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BatteryChemistry.
func (b BatteryChemistry) IsValid() bool {
	for _, candidate := range validBatteryChemistries {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBatteryChemistry converts raw input into a BatteryChemistry.
func ParseBatteryChemistry(value string) (BatteryChemistry, error) {
	for _, candidate := range validBatteryChemistries {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid battery chemistry %q", value)
}

// FormFactor maps to the form_factor enum in Postgres.
type FormFactor string

const (
	FormFactorCylindrical FormFactor = "cylindrical"
	FormFactorPrismatic   FormFactor = "prismatic"
	FormFactorPouch       FormFactor = "pouch"
	FormFactorButton      FormFactor = "button"
	FormFactorPack        FormFactor = "pack"
)

var validFormFactors = []FormFactor{
	FormFactorCylindrical,
	FormFactorPrismatic,
	FormFactorPouch,
	FormFactorButton,
	FormFactorPack,
}

// IsValid reports whether the value is a known FormFactor.
func (f FormFactor) IsValid() bool {
	for _, candidate := range validFormFactors {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFormFactor converts raw input into a FormFactor.
func ParseFormFactor(value string) (FormFactor, error) {
	for _, candidate := range validFormFactors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid form factor %q", value)
}
