package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"stockatelier/internal/repository"
	domain_error "stockatelier/pkg/errors"
	"stockatelier/pkg/models"
	"stockatelier/pkg/roles"
)

type UserRepository interface {
	GetUser(userID int) (*models.User, error)
	ListUsers(status, search string) ([]models.User, error)
	PersistUser(req models.CreateUserRequest, passwordHash string) (*models.User, error)
	UpdateUser(userID int, changes *models.UserChanges) (*models.User, error)
	CountOtherActiveAdmins(userID int) (int, error)
}

type PostgresUserRepository struct {
	repository *repository.Repository
}

func NewUserRepository(r *repository.Repository) *PostgresUserRepository {
	return &PostgresUserRepository{repository: r}
}

var userColumns = []interface{}{
	"id", "full_name", "email", "password_hash", "role", "active",
	"is_team_lead", "is_owner", "token_version", "created_at", "updated_at",
}

func (r *PostgresUserRepository) GetUser(userID int) (*models.User, error) {
	var user models.User
	found, err := r.repository.GoquDBWrapper.
		Select(userColumns...).
		From("users").
		Where(goqu.Ex{"id": userID}).
		ScanStruct(&user)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch user: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &user, nil
}

// GetPrincipal is the account lookup behind the auth middleware.
func (r *PostgresUserRepository) GetPrincipal(userID int) (*models.Principal, error) {
	user, err := r.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	return &models.Principal{
		ID:           user.ID,
		Role:         user.Role,
		Active:       user.Active,
		IsTeamLead:   user.IsTeamLead,
		IsOwner:      user.IsOwner,
		TokenVersion: user.TokenVersion,
	}, nil
}

func (r *PostgresUserRepository) ListUsers(status, search string) ([]models.User, error) {
	query := r.repository.GoquDBWrapper.
		Select(userColumns...).
		From("users").
		Order(goqu.I("active").Desc(), goqu.I("created_at").Desc())

	switch status {
	case "active":
		query = query.Where(goqu.C("active").IsTrue())
	case "inactive":
		query = query.Where(goqu.C("active").IsFalse())
	}

	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(goqu.Or(
			goqu.L("LOWER(full_name)").Like(pattern),
			goqu.L("LOWER(email)").Like(pattern),
		))
	}

	var users []models.User
	if err := query.ScanStructs(&users); err != nil {
		return nil, fmt.Errorf("unable to fetch users: %w", err)
	}

	return users, nil
}

func (r *PostgresUserRepository) PersistUser(req models.CreateUserRequest, passwordHash string) (*models.User, error) {
	user := models.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: passwordHash,
		Role:         roles.User,
		Active:       true,
	}

	query := r.repository.GoquDBWrapper.Insert("users").
		Rows(goqu.Record{
			"full_name":     user.FullName,
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"role":          user.Role,
			"active":        user.Active,
		}).
		Returning(userColumns...)

	if _, err := query.Executor().ScanStruct(&user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return nil, domain_error.WrapDBError("users.email", string(pqErr.Code))
		}
		return nil, fmt.Errorf("failed to insert user record: %w", err)
	}

	return &user, nil
}

func (r *PostgresUserRepository) UpdateUser(userID int, changes *models.UserChanges) (*models.User, error) {
	updates := goqu.Record{"updated_at": goqu.L("NOW()")}
	if changes.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*changes.FullName)
	}
	if changes.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*changes.Email))
	}
	if changes.Active != nil {
		updates["active"] = *changes.Active
	}
	if changes.PasswordHash != nil {
		updates["password_hash"] = *changes.PasswordHash
	}
	if changes.IsTeamLead != nil {
		updates["is_team_lead"] = *changes.IsTeamLead
	}
	if changes.BumpTokenVersion {
		updates["token_version"] = goqu.L("token_version + 1")
	}

	var user models.User
	query := r.repository.GoquDBWrapper.Update("users").
		Set(updates).
		Where(goqu.Ex{"id": userID}).
		Returning(userColumns...)

	found, err := query.Executor().ScanStruct(&user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return nil, domain_error.WrapDBError("users.email", string(pqErr.Code))
		}
		return nil, fmt.Errorf("failed to update user record: %w", err)
	}
	if !found {
		return nil, &domain_error.NotFoundError{Resource: "utilisateur"}
	}

	return &user, nil
}

func (r *PostgresUserRepository) CountOtherActiveAdmins(userID int) (int, error) {
	var count int
	_, err := r.repository.GoquDBWrapper.
		Select(goqu.COUNT("id")).
		From("users").
		Where(
			goqu.C("role").Eq(roles.Admin),
			goqu.C("active").IsTrue(),
			goqu.C("id").Neq(userID),
		).
		ScanVal(&count)
	if err != nil {
		return 0, fmt.Errorf("unable to count active admins: %w", err)
	}

	return count, nil
}
