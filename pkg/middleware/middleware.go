package middleware

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ksred/klear-datagen/pkg/response"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex

	// Configure limits per endpoint type
	authLimit     = rate.Limit(10.0 / 60.0)   // 10 requests per minute
	generateLimit = rate.Limit(60.0 / 60.0)   // 60 requests per minute
	readLimit     = rate.Limit(1000.0 / 60.0) // 1000 requests per minute
)

// Cleanup old visitors periodically
func init() {
	go cleanupVisitors()
}

func limitFor(method, path string) rate.Limit {
	switch {
	case strings.HasPrefix(path, "/api/v1/auth"):
		return authLimit
	case strings.HasPrefix(path, "/api/v1/scenarios") && method != "GET":
		return generateLimit
	case strings.HasPrefix(path, "/api/v1/scenarios"), strings.HasPrefix(path, "/api/v1/snapshots"):
		return readLimit
	default:
		return rate.Inf // No limit for other paths
	}
}

func getLimiter(method, path, clientID string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	key := clientID + ":" + method + ":" + path
	v, exists := visitors[key]
	if !exists {
		v = &visitor{
			limiter: rate.NewLimiter(limitFor(method, path), 1), // burst of 1
		}
		visitors[key] = v
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for key, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, key)
			}
		}
		mu.Unlock()
	}
}

func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetString("clientID")
		if clientID == "" {
			clientID = c.ClientIP()
		}

		limiter := getLimiter(c.Request.Method, c.FullPath(), clientID)
		if !limiter.Allow() {
			response.TooManyRequests(c, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// JWTAuth accepts bearer tokens signed with secret and stores their claims
// on the context
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, secret)
		if !ok {
			return
		}

		for key, value := range claims {
			c.Set(key, value)
		}
		c.Set("claims", claims)
		if clientID, ok := claims["client_id"].(string); ok {
			c.Set("clientID", clientID)
		}

		c.Next()
	}
}

// InternalAuth is JWTAuth restricted to tokens granting permission
func InternalAuth(secret, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, secret)
		if !ok {
			return
		}

		if !hasPermission(claims, permission) {
			response.Forbidden(c, fmt.Sprintf("Token lacks the %s permission", permission))
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("clientID", claims["client_id"])
		c.Next()
	}
}

// authenticate aborts the request with 401 and returns false when the
// bearer token is missing or invalid
func authenticate(c *gin.Context, secret string) (jwt.MapClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.Unauthorized(c, "Authorization header required")
		c.Abort()
		return nil, false
	}

	bearerToken := strings.Split(authHeader, " ")
	if len(bearerToken) != 2 || strings.ToLower(bearerToken[0]) != "bearer" {
		response.Unauthorized(c, "Invalid authorization header format")
		c.Abort()
		return nil, false
	}

	token, err := jwt.Parse(bearerToken[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		response.Unauthorized(c, "Invalid token")
		c.Abort()
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		response.Unauthorized(c, "Invalid token claims")
		c.Abort()
		return nil, false
	}

	// Ensure required claims exist
	for _, claim := range []string{"client_id", "exp"} {
		if _, exists := claims[claim]; !exists {
			response.Unauthorized(c, fmt.Sprintf("Missing required claim: %s", claim))
			c.Abort()
			return nil, false
		}
	}

	return claims, true
}

func hasPermission(claims jwt.MapClaims, permission string) bool {
	granted, ok := claims["permissions"].([]interface{})
	if !ok {
		return false
	}
	for _, p := range granted {
		if p == permission {
			return true
		}
	}
	return false
}
