package server

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/tutorledger/internal/observability/context"
	"github.com/smallbiznis/tutorledger/internal/orgcontext"
)

const orgIDHeader = "X-Org-Id"

// OrgContext resolves the acting organization from the X-Org-Id header,
// falling back to the configured default for single-tenant installs.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := s.cfg.DefaultOrgID
		if header := strings.TrimSpace(c.GetHeader(orgIDHeader)); header != "" {
			parsed, err := snowflake.ParseString(header)
			if err != nil {
				AbortWithError(c, newValidationError("org_id", "invalid_organization", "invalid organization id"))
				return
			}
			orgID = int64(parsed)
		}
		if orgID == 0 {
			AbortWithError(c, newValidationError("org_id", "invalid_organization", "organization id is required"))
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		ctx = obscontext.WithOrgID(ctx, snowflake.ID(orgID).String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// QuoteRateLimit throttles the interactive payment quote endpoint per
// organization. Without Redis configured the limiter passes everything
// through.
func (s *Server) QuoteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.quoteLimit.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		orgID, ok := orgcontext.OrgIDFromContext(ctx)
		if !ok {
			c.Next()
			return
		}

		result, err := s.quoteLimit.AllowQuote(ctx, orgID.String())
		if err != nil {
			// Redis being down must not take quoting with it.
			c.Next()
			return
		}
		if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			}
			s.obsMetrics.RecordRateLimitDenied(ctx, "payment_quote", "token_bucket")
			AbortWithError(c, ErrRateLimited)
			return
		}

		s.obsMetrics.RecordRateLimitAllowed(ctx, "payment_quote")
		c.Next()
	}
}
