package container

import (
	"database/sql"

	"stockatelier/internal/dashboard"
	"stockatelier/internal/materials"
	"stockatelier/internal/movements"
	"stockatelier/internal/repository"
	"stockatelier/internal/users"
	"stockatelier/internal/work"
	"stockatelier/pkg/security"
)

type Container struct {
	Repository       *repository.Repository
	UserRepository   *users.PostgresUserRepository
	LoginHandler     *security.LoginHandler
	MaterialHandler  *materials.MaterialHandler
	MovementHandler  *movements.MovementHandler
	WorkHandler      *work.WorkHandler
	UserHandler      *users.UsersHandler
	DashboardHandler *dashboard.DashboardHandler
}

func NewAppContainer(db *sql.DB) *Container {
	repo := repository.NewRepository(db)
	userRepo := users.NewUserRepository(repo)

	return &Container{
		Repository:       repo,
		UserRepository:   userRepo,
		LoginHandler:     security.NewLoginHandler(repo),
		MaterialHandler:  materials.NewMaterialHandler(repo),
		MovementHandler:  movements.NewMovementHandler(repo),
		WorkHandler:      work.NewWorkHandler(repo),
		UserHandler:      users.NewHandler(userRepo),
		DashboardHandler: dashboard.NewDashboardHandler(repo),
	}
}
