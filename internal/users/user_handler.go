package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domain_error "stockatelier/pkg/errors"
	"stockatelier/pkg/models"
	"stockatelier/pkg/roles"
	"stockatelier/pkg/security"
)

type UsersHandler struct {
	Repository UserRepository
}

func NewHandler(r UserRepository) *UsersHandler {
	return &UsersHandler{Repository: r}
}

func (h *UsersHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/me", h.GetMe)
	router.PUT("/me/password", h.UpdateMyPassword)

	router.GET("/users", security.RequireAdmin(), h.ListUsers)
	router.POST("/users", security.RequireAdmin(), h.CreateUser)
	router.PATCH("/users/:id", security.RequireAdmin(), h.UpdateUser)
	router.PUT("/users/:id/team-lead", security.RequireAdmin(), h.ToggleTeamLead)
	router.PUT("/users/:id/password", security.RequireAdmin(), h.ResetPassword)
}

func (h *UsersHandler) GetMe(c *gin.Context) {
	principal, ok := security.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
		return
	}

	user, err := h.Repository.GetUser(principal.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch user"})
		return
	}
	if user == nil || !user.Active {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Compte inactif ou introuvable"})
		return
	}

	c.JSON(http.StatusOK, user)
}

type passwordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	Password        string `json:"password" binding:"required,min=6"`
}

// UpdateMyPassword checks the current password, re-hashes and bumps the
// token version so every previously issued token stops working.
func (h *UsersHandler) UpdateMyPassword(c *gin.Context) {
	principal, ok := security.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	me, err := h.Repository.GetUser(principal.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch user"})
		return
	}
	if me == nil || !security.VerifyPassword(me.PasswordHash, req.CurrentPassword) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Mot de passe actuel incorrect"})
		return
	}

	passwordHash, err := security.HashPassword(req.Password)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	changes := &models.UserChanges{PasswordHash: &passwordHash, BumpTokenVersion: true}
	if _, err := h.Repository.UpdateUser(principal.ID, changes); err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mot de passe mis à jour. Veuillez vous reconnecter."})
}

func (h *UsersHandler) ListUsers(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != "active" && status != "inactive" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	users, err := h.Repository.ListUsers(status, c.Query("search"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to list users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *UsersHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	passwordHash, err := security.HashPassword(req.Password)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user, err := h.Repository.PersistUser(req, passwordHash)
	if err != nil {
		if domain_error.StatusCode(err) == http.StatusConflict {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Cet email est déjà utilisé"})
			return
		}
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// UpdateUser enforces the account safety rules: the owner's email is
// locked, the owner can never be deactivated, and the last active
// admin cannot be deactivated either. Deactivation revokes tokens.
func (h *UsersHandler) UpdateUser(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	target, err := h.Repository.GetUser(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch user"})
		return
	}
	if target == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	if target.IsOwner && req.Email != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "L'email du compte propriétaire est verrouillé"})
		return
	}

	if req.Active != nil && !*req.Active {
		if target.IsOwner {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Le compte propriétaire ne peut pas être désactivé"})
			return
		}
		if target.Role == roles.Admin && target.Active {
			otherAdmins, err := h.Repository.CountOtherActiveAdmins(target.ID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to check admins"})
				return
			}
			if otherAdmins == 0 {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Impossible de désactiver le dernier admin actif"})
				return
			}
		}
	}

	changes := &models.UserChanges{
		FullName: req.FullName,
		Email:    req.Email,
		Active:   req.Active,
	}
	if req.Active != nil && !*req.Active && target.Active {
		changes.BumpTokenVersion = true
	}
	if !changes.HasChanges() {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Aucune modification détectée"})
		return
	}

	user, err := h.Repository.UpdateUser(target.ID, changes)
	if err != nil {
		if domain_error.StatusCode(err) == http.StatusConflict {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Cet email est déjà utilisé"})
			return
		}
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

type teamLeadRequest struct {
	IsTeamLead *bool `json:"is_team_lead" binding:"required"`
}

// ToggleTeamLead grants or revokes the team lead flag. Only plain USER
// accounts carry it; admins already hold the same rights.
func (h *UsersHandler) ToggleTeamLead(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}

	var req teamLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	target, err := h.Repository.GetUser(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch user"})
		return
	}
	if target == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	if target.Role != roles.User {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Le statut chef d'équipe s'applique uniquement aux utilisateurs USER"})
		return
	}
	if !target.Active && *req.IsTeamLead {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Impossible de nommer chef d'équipe un compte désactivé"})
		return
	}

	user, err := h.Repository.UpdateUser(target.ID, &models.UserChanges{IsTeamLead: req.IsTeamLead})
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UsersHandler) ResetPassword(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}

	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	target, err := h.Repository.GetUser(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch user"})
		return
	}
	if target == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	passwordHash, err := security.HashPassword(req.Password)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	changes := &models.UserChanges{PasswordHash: &passwordHash, BumpTokenVersion: true}
	if _, err := h.Repository.UpdateUser(target.ID, changes); err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mot de passe réinitialisé avec succès"})
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return 0, false
	}
	return id, true
}
