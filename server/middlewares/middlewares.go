package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CompanyHeader is the header every API request scopes itself with. There
// is no cross-company visibility, so a request without it has no meaning.
const CompanyHeader = "x-company-id"

// CompanyKey is the gin context key the extracted company id is stored
// under.
const CompanyKey = "companyId"

// CompanyScope extracts the company id from the request header and aborts
// with 400 when it is missing. Handlers read it back with CompanyId(c).
func CompanyScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyId := c.GetHeader(CompanyHeader)
		if companyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code": "MISSING_COMPANY",
				"msg":  "missing " + CompanyHeader + " header",
			})
			c.Abort()
			return
		}

		c.Set(CompanyKey, companyId)
		c.Next()
	}
}

// CompanyId returns the company id CompanyScope stored on the context.
func CompanyId(c *gin.Context) string {
	return c.GetString(CompanyKey)
}
