package models

import "time"

const (
	CategoryTubes        = "Tubes"
	CategorySheets       = "Tôles"
	CategoryProfiles     = "Profilés"
	CategorySolidIron    = "Fers pleins"
	CategoryMisc         = "Divers"
	CategoryConsumables  = "Consommables"
	CategoryPaintSolvent = "Peinture & Diluants"
)

const (
	UnitTypeBar     = "BARRE"
	UnitTypeSheet   = "FEUILLE"
	UnitTypePiece   = "PIECE"
	UnitTypePackage = "PAQUET"
	UnitTypeBox     = "BOITE"
	UnitTypeCan     = "BIDON"
)

const (
	UnitVariantBar6m        = "BARRE_6M"
	UnitVariantBar12m       = "BARRE_12M"
	UnitVariantSheet2x1     = "FEUILLE_2X1"
	UnitVariantSheet244x122 = "FEUILLE_244X122"
	UnitVariantSheetCustom  = "FEUILLE_CUSTOM"
)

type Material struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Category       string    `json:"category" db:"category"`
	SubType        *string   `json:"sub_type,omitempty" db:"sub_type"`
	MaterialKind   *string   `json:"material_kind,omitempty" db:"material_kind"`
	ShapeType      *string   `json:"shape_type,omitempty" db:"shape_type"`
	DimAmm         *int      `json:"dim_a_mm,omitempty" db:"dim_a_mm"`
	DimBmm         *int      `json:"dim_b_mm,omitempty" db:"dim_b_mm"`
	ThicknessMm    *int      `json:"thickness_mm,omitempty" db:"thickness_mm"`
	SheetWidthMm   *int      `json:"sheet_width_mm,omitempty" db:"sheet_width_mm"`
	SheetHeightMm  *int      `json:"sheet_height_mm,omitempty" db:"sheet_height_mm"`
	PackageSize    *float64  `json:"package_size,omitempty" db:"package_size"`
	PackageUnit    *string   `json:"package_unit,omitempty" db:"package_unit"`
	SpecText       *string   `json:"spec_text,omitempty" db:"spec_text"`
	Unit           string    `json:"unit" db:"unit"`
	UnitType       string    `json:"unit_type" db:"unit_type"`
	UnitVariant    *string   `json:"unit_variant,omitempty" db:"unit_variant"`
	Fingerprint    string    `json:"-" db:"fingerprint"`
	Quantity       int       `json:"quantity" db:"quantity"`
	AlertThreshold int       `json:"alert_threshold" db:"alert_threshold"`
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
