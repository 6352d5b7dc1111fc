package materials

import (
	"database/sql"
	"errors"
	"fmt"

	"stockatelier/internal/repository"
	"stockatelier/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	domain_error "stockatelier/pkg/errors"
)

type MaterialRepository interface {
	FindActiveByFingerprint(fingerprint string) (*models.Material, error)
	PersistMaterial(material *models.Material) (int, error)
	GetMaterial(id int) (*models.Material, error)
	GetMaterials() ([]models.Material, error)
	UpdateMaterial(id int, changes UpdateMaterialRequest) error
}

type materialRepositoryImpl struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) MaterialRepository {
	return &materialRepositoryImpl{repository: r}
}

var materialColumns = []any{
	"id", "name", "category", "sub_type", "material_kind", "shape_type",
	"dim_a_mm", "dim_b_mm", "thickness_mm", "sheet_width_mm", "sheet_height_mm",
	"package_size", "package_unit", "spec_text", "unit", "unit_type", "unit_variant",
	"fingerprint", "quantity", "alert_threshold", "active", "created_at", "updated_at",
}

func (r *materialRepositoryImpl) FindActiveByFingerprint(fingerprint string) (*models.Material, error) {
	var material models.Material
	query := r.repository.GoquDBWrapper.Select(materialColumns...).
		From("materials").
		Where(goqu.Ex{"fingerprint": fingerprint, "active": true})

	found, err := query.Executor().ScanStruct(&material)
	if err != nil {
		return nil, fmt.Errorf("failed to look up material by fingerprint: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &material, nil
}

func (r *materialRepositoryImpl) PersistMaterial(material *models.Material) (int, error) {
	query := r.repository.GoquDBWrapper.Insert("materials").
		Rows(goqu.Record{
			"name":            material.Name,
			"category":        material.Category,
			"sub_type":        material.SubType,
			"material_kind":   material.MaterialKind,
			"shape_type":      material.ShapeType,
			"dim_a_mm":        material.DimAmm,
			"dim_b_mm":        material.DimBmm,
			"thickness_mm":    material.ThicknessMm,
			"sheet_width_mm":  material.SheetWidthMm,
			"sheet_height_mm": material.SheetHeightMm,
			"package_size":    material.PackageSize,
			"package_unit":    material.PackageUnit,
			"spec_text":       material.SpecText,
			"unit":            material.Unit,
			"unit_type":       material.UnitType,
			"unit_variant":    material.UnitVariant,
			"fingerprint":     material.Fingerprint,
			"quantity":        material.Quantity,
			"alert_threshold": material.AlertThreshold,
			"active":          true,
		}).
		Returning("id")

	var id int
	if _, err := query.Executor().ScanVal(&id); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return 0, domain_error.WrapDBError("materials.fingerprint", string(pqErr.Code))
		}
		return 0, fmt.Errorf("failed to insert material record: %w", err)
	}

	return id, nil
}

func (r *materialRepositoryImpl) GetMaterial(id int) (*models.Material, error) {
	var material models.Material
	query := r.repository.GoquDBWrapper.Select(materialColumns...).
		From("materials").
		Where(goqu.Ex{"id": id})

	found, err := query.Executor().ScanStruct(&material)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &material, nil
}

func (r *materialRepositoryImpl) GetMaterials() ([]models.Material, error) {
	var materials []models.Material
	query := r.repository.GoquDBWrapper.Select(materialColumns...).
		From("materials").
		Where(goqu.Ex{"active": true}).
		Order(goqu.C("category").Asc(), goqu.C("name").Asc())

	if err := query.Executor().ScanStructs(&materials); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return materials, nil
}

// UpdateMaterial touches catalog attributes only. Quantity is owned by
// the stock ledger and must never be written from here.
func (r *materialRepositoryImpl) UpdateMaterial(id int, changes UpdateMaterialRequest) error {
	record := goqu.Record{"updated_at": goqu.L("now()")}
	if changes.AlertThreshold != nil {
		record["alert_threshold"] = *changes.AlertThreshold
	}
	if changes.Active != nil {
		record["active"] = *changes.Active
	}

	query := r.repository.GoquDBWrapper.Update("materials").
		Set(record).
		Where(goqu.Ex{"id": id})

	if _, err := query.Executor().Exec(); err != nil {
		return fmt.Errorf("failed to update material: %w", err)
	}

	return nil
}
