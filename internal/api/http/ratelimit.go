package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/blobindexer/syncer/lru"
)

// maxLimitedClients bounds the number of per-client limiters kept in memory,
// the least recently seen clients are forgotten first.
const maxLimitedClients = 10_000

// rateLimit allows rps requests per second with the given burst for every client IP.
func rateLimit(rps, burst int) gin.HandlerFunc {
	limiters := lru.New[string, *rate.Limiter](maxLimitedClients)

	return func(ctx *gin.Context) {
		l := limiters.GetOrCreate(ctx.ClientIP(), func() *rate.Limiter {
			return rate.NewLimiter(rate.Limit(rps), burst)
		})
		if !l.Allow() {
			ctx.Header("X-RateLimit-Limit", strconv.Itoa(rps))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		ctx.Next()
	}
}
