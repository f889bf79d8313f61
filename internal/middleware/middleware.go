package middleware

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SetupCORS configures CORS middleware
func SetupCORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000", // Storefront
			"http://localhost:4200", // Admin shell app
			"http://localhost:4310", // Returns MFE
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-Shop-ID", "X-Admin-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// Logger returns a gin.HandlerFunc for logging requests
func Logger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	})
}

// Recovery returns a middleware that recovers from panics
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if err, ok := recovered.(string); ok {
			log.Printf("Panic recovered: %s", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal Server Error",
				"message": "An unexpected error occurred",
			})
		}
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// RequestID adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// JWTPayload represents the decoded JWT payload for customer authentication
type JWTPayload struct {
	Sub        string `json:"sub"`
	CustomerID string `json:"customer_id"`
	Email      string `json:"email"`
}

// CustomerAuth validates the storefront JWT and extracts the customer
// ID. Signature verification happens at the gateway; this middleware
// only decodes the identity claims.
func CustomerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenParts := strings.Split(parts[1], ".")
		if len(tokenParts) != 3 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid JWT format"})
			c.Abort()
			return
		}

		payload, err := base64.RawURLEncoding.DecodeString(tokenParts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid JWT payload"})
			c.Abort()
			return
		}

		var jwtPayload JWTPayload
		if err := json.Unmarshal(payload, &jwtPayload); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid JWT payload structure"})
			c.Abort()
			return
		}

		// Try both customer_id and sub claims
		rawID := jwtPayload.CustomerID
		if rawID == "" {
			rawID = jwtPayload.Sub
		}
		customerID, err := uuid.Parse(rawID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Customer ID not found in token"})
			c.Abort()
			return
		}

		c.Set("customer_id", customerID)
		c.Set("customer_email", jwtPayload.Email)
		c.Next()
	}
}

// ShopAuth extracts the shop identity resolved by the gateway
func ShopAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		shopID, err := uuid.Parse(c.GetHeader("X-Shop-ID"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Shop-ID header required"})
			c.Abort()
			return
		}
		c.Set("shop_id", shopID)
		c.Next()
	}
}

// AdminAuth extracts the admin identity resolved by the gateway
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, err := uuid.Parse(c.GetHeader("X-Admin-ID"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Admin-ID header required"})
			c.Abort()
			return
		}
		c.Set("admin_id", adminID)
		c.Next()
	}
}

// GetCustomerID returns the authenticated customer ID from the context
func GetCustomerID(c *gin.Context) (uuid.UUID, bool) {
	return getUUID(c, "customer_id")
}

// GetShopID returns the authenticated shop ID from the context
func GetShopID(c *gin.Context) (uuid.UUID, bool) {
	return getUUID(c, "shop_id")
}

// GetAdminID returns the authenticated admin ID from the context
func GetAdminID(c *gin.Context) (uuid.UUID, bool) {
	return getUUID(c, "admin_id")
}

func getUUID(c *gin.Context, key string) (uuid.UUID, bool) {
	value, exists := c.Get(key)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
