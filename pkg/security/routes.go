package security

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockatelier/internal/rate_limiter"
	"stockatelier/internal/repository"
	domain_error "stockatelier/pkg/errors"
)

type LoginHandler struct {
	repo        *repository.Repository
	rateLimiter *rate_limiter.RateLimiter
}

func NewLoginHandler(r *repository.Repository) *LoginHandler {
	return &LoginHandler{
		repo:        r,
		rateLimiter: rate_limiter.NewRateLimiter(10, 5*time.Minute),
	}
}

func (l *LoginHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/auth/login", l.Login())
}

func (l *LoginHandler) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := clientKeyFor(c)

		if !l.rateLimiter.IsAllowed(clientKey) {
			remaining := l.rateLimiter.GetRemainingRequests(clientKey)
			c.Header("X-RateLimit-Limit", "10")
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
			c.Header("X-RateLimit-Reset", time.Now().Add(5*time.Minute).Format(time.RFC3339))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":     "Trop de tentatives de connexion. Réessayez plus tard.",
				"remaining": remaining,
				"reset_at":  time.Now().Add(5 * time.Minute).Format(time.RFC3339),
			})
			return
		}

		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		user, err := AuthenticateUser(req.Email, req.Password, l.repo)
		if err != nil {
			var unauthorized *domain_error.UnauthorizedError
			var forbidden *domain_error.ForbiddenError
			switch {
			case errors.As(err, &unauthorized):
				c.JSON(http.StatusUnauthorized, gin.H{"error": unauthorized.Message})
			case errors.As(err, &forbidden):
				c.JSON(http.StatusForbidden, gin.H{"error": forbidden.Message})
			default:
				log.Printf("Error during authentication: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		token, err := GenerateJWT(user.ID, user.Role, user.TokenVersion)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

// clientKeyFor picks the best available client identity for rate
// limiting. Behind a private network the IP alone is too coarse, so
// the User-Agent is mixed in.
func clientKeyFor(c *gin.Context) string {
	clientIP := c.GetHeader("X-Forwarded-For")
	if clientIP == "" {
		clientIP = c.GetHeader("X-Real-IP")
	}
	if clientIP == "" {
		clientIP = c.ClientIP()
	}

	if strings.Contains(clientIP, ",") {
		clientIP = strings.TrimSpace(strings.Split(clientIP, ",")[0])
	}

	if isPrivateIP(clientIP) {
		clientIP = clientIP + ":" + c.GetHeader("User-Agent")
	}

	return clientIP
}

func isPrivateIP(ip string) bool {
	privatePrefixes := []string{
		"10.", "192.168.", "127.", "::1", "fc00:", "fe80:",
	}
	for i := 16; i <= 31; i++ {
		privatePrefixes = append(privatePrefixes, "172."+strconv.Itoa(i)+".")
	}

	for _, prefix := range privatePrefixes {
		if strings.HasPrefix(ip, prefix) {
			return true
		}
	}
	return false
}
