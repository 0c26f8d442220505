package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ksred/klear-datagen/pkg/response"
)

var (
	ErrInvalidCredentials = errors.New("invalid API credentials")
	ErrTokenGeneration    = errors.New("failed to generate token")
	ErrInvalidToken       = errors.New("invalid token")
)

// Permissions carried in issued tokens
const (
	PermissionGenerate = "generate"
	PermissionInternal = "internal"
)

// DefaultTokenTTL is used when NewService is given a zero ttl
const DefaultTokenTTL = 24 * time.Hour

// Credentials represents the API authentication credentials
type Credentials struct {
	APIKey    string `json:"api_key" binding:"required"`
	APISecret string `json:"api_secret" binding:"required"`
}

// TokenResponse represents the JWT token response
type TokenResponse struct {
	Token       string    `json:"jwt_token"`
	Expiration  time.Time `json:"expiration"`
	Permissions []string  `json:"permissions"`
}

// Claims represents the JWT claims structure
type Claims struct {
	jwt.RegisteredClaims
	ClientID    string   `json:"client_id"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the token grants p
func (c *Claims) HasPermission(p string) bool {
	for _, granted := range c.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

type client struct {
	secret      string
	permissions []string
}

// Service issues and validates tokens for registered API clients
type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
	clients   map[string]client
}

// NewService creates an authentication service signing with jwtSecret.
// Tokens expire after ttl.
func NewService(jwtSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
		clients:   make(map[string]client),
	}
}

// RegisterAPICredentials allows apiKey to obtain tokens. Without explicit
// permissions the client may only generate scenarios.
func (s *Service) RegisterAPICredentials(apiKey, apiSecret string, permissions ...string) {
	if len(permissions) == 0 {
		permissions = []string{PermissionGenerate}
	}
	s.clients[apiKey] = client{secret: apiSecret, permissions: permissions}
}

// GenerateToken issues a signed token for valid API credentials
func (s *Service) GenerateToken(creds Credentials) (*TokenResponse, error) {
	c, ok := s.clients[creds.APIKey]
	if !ok || subtle.ConstantTimeCompare([]byte(c.secret), []byte(creds.APISecret)) != 1 {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expiration := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   creds.APIKey,
		},
		ClientID:    creds.APIKey,
		Permissions: c.permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &TokenResponse{
		Token:       tokenString,
		Expiration:  expiration,
		Permissions: c.permissions,
	}, nil
}

// ValidateToken verifies signature and expiry and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GenerateTokenHandler handles POST requests to generate JWT tokens
// Request body: Credentials
func (h *GinHandlers) GenerateTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.GenerateToken(creds)
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.Handle(c, token, err)
	}
}

// GetClientID extracts the client ID from the claims the JWT middleware
// stored on the request context
func GetClientID(claims interface{}) string {
	if jwtClaims, ok := claims.(jwt.MapClaims); ok {
		if clientID, ok := jwtClaims["client_id"].(string); ok {
			return clientID
		}
	}
	return ""
}
