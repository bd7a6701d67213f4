package middleware

import (
	"compress/gzip"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/gotpb/pkg/logger"
	"github.com/amaumene/gotpb/pkg/ratelimiter"
	"github.com/amaumene/gotpb/pkg/security"
	"github.com/gin-gonic/gin"
)

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzipWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzipWriter.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.gzipWriter.Write([]byte(s))
}

// WriteHeader drops any Content-Length set by the handler, which would
// describe the uncompressed body.
func (w *gzipResponseWriter) WriteHeader(code int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

func Gzip() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		gzipWriter := gzip.NewWriter(c.Writer)
		defer gzipWriter.Close()

		c.Writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzipWriter:     gzipWriter,
		}

		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RateLimit rejects requests with 429 once the limiter has no tokens left.
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.TakeToken() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
				"type":  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

const apiKeyParam = "api_key"

// APIKey requires the key in the X-API-Key header or the api_key query
// parameter. An empty key disables the check. /health stays open.
func APIKey(key string, validator *security.APIKeyValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		given := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if given == "" {
			given = strings.TrimSpace(c.Query(apiKeyParam))
		}
		if !validator.ValidateAPIKey(given) || !validator.SecureCompare(key, given) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing or invalid API key",
				"type":  "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}

// Logger logs one line per request. A key passed as api_key is masked.
func Logger(log logger.Logger) gin.HandlerFunc {
	validator := security.NewAPIKeyValidator()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := maskQuery(c.Request.URL.RawQuery, validator)

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		switch {
		case statusCode >= 500:
			log.Errorf("[Server] %s %s %d %v %s", clientIP, method, statusCode, latency, path)
		case statusCode >= 400:
			log.Warnf("[Server] %s %s %d %v %s", clientIP, method, statusCode, latency, path)
		default:
			log.Infof("[Server] %s %s %d %v %s", clientIP, method, statusCode, latency, path)
		}
	}
}

func maskQuery(raw string, validator *security.APIKeyValidator) string {
	if !strings.Contains(raw, apiKeyParam) {
		return raw
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		// unparseable, so the key cannot be located
		return "[unparsed query]"
	}
	keys, ok := values[apiKeyParam]
	if !ok {
		return raw
	}
	for i, k := range keys {
		keys[i] = validator.MaskAPIKey(k)
	}
	return values.Encode()
}
