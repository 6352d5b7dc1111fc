package security

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"stockatelier/internal/repository"
	domain_error "stockatelier/pkg/errors"
	"stockatelier/pkg/models"
	"stockatelier/pkg/roles"
)

var jwtSecret []byte

func init() {
	secret := os.Getenv("JWT_SECRET")

	if secret == "" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Could not load .env: %v", err)
		}
		secret = os.Getenv("JWT_SECRET")
	}

	if secret == "" {
		// Keeps local tooling and tests runnable; production must set
		// JWT_SECRET.
		log.Println("JWT_SECRET is not set, falling back to an insecure development secret")
		secret = "stockatelier-dev-secret"
	}

	jwtSecret = []byte(secret)
}

// AuthenticateUser resolves a user by email and verifies the password.
// A deactivated account is refused with its own message so the user
// knows the credentials were fine.
func AuthenticateUser(email, password string, repo *repository.Repository) (*models.User, error) {
	var user models.User

	query := repo.GoquDBWrapper.
		Select("id", "full_name", "email", "password_hash", "role", "active", "is_team_lead", "is_owner", "token_version").
		From("users").
		Where(goqu.Ex{"email": normalizeLoginEmail(email)})

	found, err := query.Executor().ScanStruct(&user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &domain_error.UnauthorizedError{Message: "Email ou mot de passe incorrect"}
	}

	return verifyCredentials(&user, password)
}

// normalizeLoginEmail matches the normalization applied when accounts
// are created, so mixed-case logins resolve the same row.
func normalizeLoginEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func verifyCredentials(user *models.User, password string) (*models.User, error) {
	if !user.Active {
		return nil, &domain_error.ForbiddenError{Message: "Compte désactivé"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, &domain_error.UnauthorizedError{Message: "Email ou mot de passe incorrect"}
		}
		return nil, err
	}

	return user, nil
}

// GenerateJWT signs a 30-day token. tokenVersion is checked against the
// database on every request so a password change revokes old tokens.
func GenerateJWT(userID int, role roles.Role, tokenVersion int) (string, error) {
	claims := jwt.MapClaims{
		"userID":       userID,
		"role":         string(role),
		"tokenVersion": tokenVersion,
		"exp":          time.Now().Add(30 * 24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
