package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/totargaming/stockinfo/internal/constants"
	apierrors "github.com/totargaming/stockinfo/internal/errors"
	"github.com/totargaming/stockinfo/internal/repository"
)

// RequirePortfolioAccess loads the portfolio named by the :id parameter and
// verifies the session user owns it. The existence check runs first, so a
// missing portfolio is 404 and a foreign one is 403.
func RequirePortfolioAccess(portfolioRepo repository.PortfolioRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		portfolioIDStr := c.Param("id")
		portfolioID, err := strconv.ParseUint(portfolioIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid portfolio ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		portfolio, err := portfolioRepo.FindByID(portfolioID)
		if err != nil {
			apierrors.NotFound(c, "Portfolio not found")
			c.Abort()
			return
		}

		if portfolio.UserID != userID {
			apierrors.Forbidden(c, "Portfolio belongs to another user")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyPortfolio, *portfolio)
		c.Next()
	}
}
