package middleware

import (
	"fmt"
	"strings"

	"github.com/ariebrainware/dental-ledger/util"
	"github.com/gin-gonic/gin"
)

const operatorContextKey = "operator"

// RequireOperator rejects requests without a valid operator bearer token.
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			util.LogUnauthorizedAccess(c.ClientIP(), c.Request.URL.Path, "missing bearer token")
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Unauthorized",
				Err: fmt.Errorf("missing bearer token"),
			})
			c.Abort()
			return
		}

		operator, err := util.ParseOperatorToken(strings.TrimSpace(raw))
		if err != nil {
			util.LogUnauthorizedAccess(c.ClientIP(), c.Request.URL.Path, err.Error())
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Unauthorized",
				Err: fmt.Errorf("invalid operator token"),
			})
			c.Abort()
			return
		}

		c.Set(operatorContextKey, operator)
		c.Next()
	}
}

// GetOperator returns the authenticated operator name, if any.
func GetOperator(c *gin.Context) (string, bool) {
	v, ok := c.Get(operatorContextKey)
	if !ok {
		return "", false
	}
	operator, ok := v.(string)
	return operator, ok
}
