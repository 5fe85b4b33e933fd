package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KAOS-CODM/KaosSub/internal/api"
	"github.com/KAOS-CODM/KaosSub/internal/logger"
	"github.com/KAOS-CODM/KaosSub/internal/provider"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// ProviderBalance reports the fulfillment provider's wallet balance so
// operators can spot it running dry before orders start failing.
func ProviderBalance(client *provider.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		balance, err := client.Balance(c.Request.Context())
		if err != nil {
			logger.Errorf("Provider balance check failed: %v", err)
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Failed to fetch provider balance"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"balance": balance})
	}
}
