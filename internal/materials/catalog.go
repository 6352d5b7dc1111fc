package materials

import (
	"strconv"
	"strings"

	domain_error "stockatelier/pkg/errors"
	"stockatelier/pkg/models"
)

// categorySpec is the per-category variant: which combinations of unit
// type and dimensions a category accepts, and how its display name is
// derived. Adding a category means adding one entry here.
type categorySpec struct {
	validate    func(req CreateMaterialRequest) error
	displayName func(req CreateMaterialRequest) string
}

var categorySpecs = map[string]categorySpec{
	models.CategoryTubes: {
		validate: validateBarStock,
		displayName: func(req CreateMaterialRequest) string {
			dims := formatTubeShape(req.ShapeType, req.DimAmm, req.DimBmm)
			return squeeze("Tube " + req.ShapeType + " " + req.MaterialKind + " " + dims + " x " + mm(req.ThicknessMm) + " mm")
		},
	},
	models.CategorySheets: {
		validate: func(req CreateMaterialRequest) error {
			if req.UnitType != models.UnitTypeSheet {
				return &domain_error.BusinessRuleError{Message: "Les tôles doivent être en feuille"}
			}
			switch req.UnitVariant {
			case models.UnitVariantSheet2x1, models.UnitVariantSheet244x122:
				return nil
			case models.UnitVariantSheetCustom:
				if req.SheetWidthMm == nil || req.SheetHeightMm == nil {
					return &domain_error.BusinessRuleError{Message: "Le format personnalisé de tôle nécessite largeur et hauteur"}
				}
				return nil
			default:
				return &domain_error.BusinessRuleError{Message: "Format de feuille invalide"}
			}
		},
		displayName: func(req CreateMaterialRequest) string {
			return squeeze("Tôle " + req.MaterialKind + " " + mm(req.ThicknessMm) + " mm")
		},
	},
	models.CategoryProfiles: {
		validate: validateBarStock,
		displayName: func(req CreateMaterialRequest) string {
			dims := joinDims(mm(req.DimAmm), mm(req.DimBmm))
			return squeeze("Profilé " + req.SubType + " " + req.MaterialKind + " " + dims + " x " + mm(req.ThicknessMm) + " mm")
		},
	},
	models.CategorySolidIron: {
		validate: validateBarStock,
		displayName: func(req CreateMaterialRequest) string {
			shape := strings.ToLower(req.ShapeType)
			switch {
			case strings.Contains(shape, "rond"):
				return squeeze("Fer plein rond " + req.MaterialKind + " Ø" + mm(req.DimAmm) + " mm")
			case strings.Contains(shape, "carr"):
				return squeeze("Fer plein carré " + req.MaterialKind + " " + mm(req.DimAmm) + " mm")
			case strings.Contains(shape, "plat"):
				return squeeze("Fer plat " + req.MaterialKind + " " + mm(req.DimAmm) + " x " + mm(req.ThicknessMm) + " mm")
			default:
				return squeeze("Fer plein " + req.ShapeType + " " + req.MaterialKind)
			}
		},
	},
	models.CategoryMisc: {
		validate: func(req CreateMaterialRequest) error {
			if req.UnitType != models.UnitTypePiece && req.UnitType != models.UnitTypePackage {
				return &domain_error.BusinessRuleError{Message: "Divers accepte uniquement pièce ou paquet"}
			}
			return nil
		},
		displayName: miscDisplayName,
	},
	models.CategoryConsumables: {
		validate:    func(CreateMaterialRequest) error { return nil },
		displayName: miscDisplayName,
	},
	models.CategoryPaintSolvent: {
		validate: func(req CreateMaterialRequest) error {
			if req.PackageSize == nil || strings.TrimSpace(req.PackageUnit) == "" {
				return &domain_error.BusinessRuleError{Message: "Peinture & Diluants nécessite un conditionnement (kg ou L)"}
			}
			return nil
		},
		displayName: func(req CreateMaterialRequest) string {
			sub := strings.TrimSpace(req.SubType)
			if sub == "" {
				sub = "Produit"
			}
			return squeeze(sub + " " + req.SpecText + " " + packageSize(req.PackageSize) + " " + req.PackageUnit)
		},
	},
}

// validateBarStock applies to Tubes, Profilés and Fers pleins: bar
// stock only, in 6 m or 12 m lengths.
func validateBarStock(req CreateMaterialRequest) error {
	if req.UnitType != models.UnitTypeBar {
		return &domain_error.BusinessRuleError{Message: "Cette catégorie doit être en barre"}
	}
	if req.UnitVariant != models.UnitVariantBar6m && req.UnitVariant != models.UnitVariantBar12m {
		return &domain_error.BusinessRuleError{Message: "Choisissez 6 m ou 12 m pour la barre"}
	}
	return nil
}

func miscDisplayName(req CreateMaterialRequest) string {
	sub := strings.TrimSpace(req.SubType)
	if sub == "" {
		sub = req.Category
	}
	return squeeze(sub + " " + req.SpecText)
}

func validUnitType(unitType string) bool {
	switch unitType {
	case models.UnitTypeBar, models.UnitTypeSheet, models.UnitTypePiece,
		models.UnitTypePackage, models.UnitTypeBox, models.UnitTypeCan:
		return true
	default:
		return false
	}
}

// ValidateMaterial checks the closed category vocabulary first, then
// dispatches to the category variant's own rule.
func ValidateMaterial(req CreateMaterialRequest) error {
	if !validUnitType(req.UnitType) {
		return &domain_error.ValidationError{Message: "Type d'unité inconnu: " + req.UnitType}
	}

	spec, ok := categorySpecs[req.Category]
	if !ok {
		return &domain_error.ValidationError{Message: "Catégorie inconnue: " + req.Category}
	}

	return spec.validate(req)
}

func BuildName(req CreateMaterialRequest) string {
	spec, ok := categorySpecs[req.Category]
	if !ok {
		return squeeze(req.Category + " " + req.SpecText)
	}
	return spec.displayName(req)
}

func BuildUnitLabel(req CreateMaterialRequest) string {
	switch req.UnitType {
	case models.UnitTypeBar:
		if req.UnitVariant == models.UnitVariantBar12m {
			return "barre 12 m"
		}
		return "barre 6 m"
	case models.UnitTypeSheet:
		switch req.UnitVariant {
		case models.UnitVariantSheet244x122:
			return "feuille 2,44 x 1,22 m"
		case models.UnitVariantSheet2x1:
			return "feuille 2 x 1 m"
		case models.UnitVariantSheetCustom:
			if req.SheetWidthMm != nil && req.SheetHeightMm != nil {
				return "feuille " + mm(req.SheetWidthMm) + " x " + mm(req.SheetHeightMm) + " mm"
			}
		}
		return "feuille"
	case models.UnitTypePackage:
		return "paquet"
	case models.UnitTypePiece:
		return "pièce"
	case models.UnitTypeBox:
		return "boîte"
	case models.UnitTypeCan:
		return "bidon"
	default:
		return "unité"
	}
}

// Fingerprint derives the uniqueness key of a material, independent of
// its free-text name: a lowercase, whitespace-normalized join of every
// present distinguishing attribute in a fixed order. Absent fields are
// skipped rather than placeholder-filled, so the result is pure and
// deterministic given the same non-empty field set.
func Fingerprint(req CreateMaterialRequest) string {
	parts := []string{
		req.Category,
		strings.TrimSpace(req.MaterialKind),
		strings.TrimSpace(req.SubType),
		strings.TrimSpace(req.ShapeType),
		mm(req.DimAmm),
		mm(req.DimBmm),
		mm(req.ThicknessMm),
		mm(req.SheetWidthMm),
		mm(req.SheetHeightMm),
		packageSize(req.PackageSize),
		strings.TrimSpace(req.PackageUnit),
		strings.TrimSpace(req.SpecText),
		req.UnitType,
		strings.TrimSpace(req.UnitVariant),
	}

	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		part = strings.ToLower(part)
		part = strings.Join(strings.Fields(part), "-")
		normalized = append(normalized, part)
	}

	return strings.Join(normalized, "|")
}

func formatTubeShape(shapeType string, dimA, dimB *int) string {
	shape := strings.ToLower(shapeType)
	switch {
	case strings.Contains(shape, "rond"):
		return "Ø" + mm(dimA)
	case strings.Contains(shape, "carr"):
		return mm(dimA) + " x " + mm(dimA)
	case strings.Contains(shape, "rect"):
		return mm(dimA) + " x " + mm(dimB)
	default:
		return joinDims(mm(dimA), mm(dimB))
	}
}

func joinDims(dims ...string) string {
	present := make([]string, 0, len(dims))
	for _, d := range dims {
		if d != "" {
			present = append(present, d)
		}
	}
	return strings.Join(present, " x ")
}

func mm(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func packageSize(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

// squeeze collapses runs of whitespace left behind by absent optional
// parts of a display name.
func squeeze(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
