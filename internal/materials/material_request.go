package materials

type CreateMaterialRequest struct {
	Category       string   `json:"category" binding:"required"`
	SubType        string   `json:"sub_type" binding:"omitempty,max=100"`
	MaterialKind   string   `json:"material_kind" binding:"omitempty,max=60"`
	ShapeType      string   `json:"shape_type" binding:"omitempty,max=60"`
	DimAmm         *int     `json:"dim_a_mm" binding:"omitempty,gt=0"`
	DimBmm         *int     `json:"dim_b_mm" binding:"omitempty,gt=0"`
	ThicknessMm    *int     `json:"thickness_mm" binding:"omitempty,gt=0"`
	SheetWidthMm   *int     `json:"sheet_width_mm" binding:"omitempty,gt=0"`
	SheetHeightMm  *int     `json:"sheet_height_mm" binding:"omitempty,gt=0"`
	PackageSize    *float64 `json:"package_size" binding:"omitempty,gt=0"`
	PackageUnit    string   `json:"package_unit" binding:"omitempty,max=10"`
	SpecText       string   `json:"spec_text" binding:"omitempty,max=120"`
	UnitType       string   `json:"unit_type" binding:"required"`
	UnitVariant    string   `json:"unit_variant" binding:"omitempty,max=40"`
	Quantity       *int     `json:"quantity" binding:"omitempty,gte=0"`
	AlertThreshold *int     `json:"alert_threshold" binding:"omitempty,gte=0"`
}

type UpdateMaterialRequest struct {
	AlertThreshold *int  `json:"alert_threshold" binding:"omitempty,gte=0"`
	Active         *bool `json:"active"`
}
