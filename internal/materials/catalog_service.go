package materials

import (
	"strings"

	domain_error "stockatelier/pkg/errors"
	"stockatelier/pkg/models"
)

type CatalogService struct {
	repo MaterialRepository
}

func NewCatalogService(repo MaterialRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// AdmitMaterial validates the category business rules, rejects
// fingerprint duplicates against the active catalog, and persists the
// new material with its derived display name and unit label.
func (s *CatalogService) AdmitMaterial(req CreateMaterialRequest) (*models.Material, error) {
	if err := ValidateMaterial(req); err != nil {
		return nil, err
	}

	fingerprint := Fingerprint(req)
	existing, err := s.repo.FindActiveByFingerprint(fingerprint)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain_error.DuplicateMaterialError{
			MaterialID:   existing.ID,
			MaterialName: existing.Name,
		}
	}

	material := &models.Material{
		Name:           BuildName(req),
		Category:       req.Category,
		SubType:        optionalText(req.SubType),
		MaterialKind:   optionalText(req.MaterialKind),
		ShapeType:      optionalText(req.ShapeType),
		DimAmm:         req.DimAmm,
		DimBmm:         req.DimBmm,
		ThicknessMm:    req.ThicknessMm,
		SheetWidthMm:   req.SheetWidthMm,
		SheetHeightMm:  req.SheetHeightMm,
		PackageSize:    req.PackageSize,
		PackageUnit:    optionalText(req.PackageUnit),
		SpecText:       optionalText(req.SpecText),
		Unit:           BuildUnitLabel(req),
		UnitType:       req.UnitType,
		UnitVariant:    optionalText(req.UnitVariant),
		Fingerprint:    fingerprint,
		Quantity:       0,
		AlertThreshold: 5,
		Active:         true,
	}

	if req.Quantity != nil {
		material.Quantity = *req.Quantity
	}
	if req.AlertThreshold != nil {
		material.AlertThreshold = *req.AlertThreshold
	}

	id, err := s.repo.PersistMaterial(material)
	if err != nil {
		return nil, err
	}
	material.ID = id

	return material, nil
}

func optionalText(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
