package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const sessionCookieName = "cg_sid"

// gateAllowlist 无需认证的路径：健康检查、爬虫声明与口令登录流程。
var gateAllowlist = map[string]struct{}{
	"/ping":       {},
	"/robots.txt": {},
	"/login":      {},
	"/logout":     {},
}

const unauthorizedHTML = `<html><body style='font-family:system-ui,-apple-system,Segoe UI,Roboto,Arial; padding:16px'>` +
	`<h2 style='margin:0 0 8px'>Unauthorized</h2>` +
	`<div style='opacity:0.75'>This app requires a token link (?t=...) or passphrase auth to be enabled on the server.</div>` +
	`</body></html>`

// AuthGate 请求准入中间件。接受三种凭证：Bearer token、?t= 查询参数、
// cg_sid 会话 cookie。CHARGEN_TOKEN 未配置时整个服务拒绝请求（fail-closed）。
func (h *HTTPHandler) AuthGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := gateAllowlist[path]; ok {
			c.Next()
			return
		}
		// 本地存储模式下的静态产物；远端对象存储里同样是公开可读的
		if strings.HasPrefix(path, "/files/") {
			c.Next()
			return
		}

		expected := strings.TrimSpace(h.cfg.AccessToken)
		if expected == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, APIError{
				Code:    ErrCodeServiceUnavailable,
				Message: "CHARGEN_TOKEN not configured",
			})
			return
		}

		if token := extractToken(c); token != "" &&
			subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1 {
			c.Next()
			return
		}

		if h.isSessionAuthed(c) {
			c.Next()
			return
		}

		if wantsHTML(c) {
			if h.sessionCodec != nil {
				c.Redirect(http.StatusFound, "/login")
				c.Abort()
				return
			}
			c.Data(http.StatusUnauthorized, "text/html; charset=utf-8", []byte(unauthorizedHTML))
			c.Abort()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
			Code:    ErrCodeUnauthorized,
			Message: "unauthorized",
		})
	}
}

// extractToken 取请求携带的静态 token，Authorization 头优先于 ?t= 参数。
func extractToken(c *gin.Context) string {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		fields := strings.Fields(header)
		if len(fields) == 2 && strings.EqualFold(fields[0], "bearer") {
			return fields[1]
		}
	}
	return strings.TrimSpace(c.Query("t"))
}

// wantsHTML 浏览器直接访问时返回页面而不是 JSON。
func wantsHTML(c *gin.Context) bool {
	accept := strings.ToLower(c.GetHeader("Accept"))
	return accept == "" || strings.Contains(accept, "text/html")
}

func (h *HTTPHandler) isSessionAuthed(c *gin.Context) bool {
	if h.sessionCodec == nil {
		return false
	}
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		return false
	}
	return h.sessionCodec.Verify(cookie, time.Now())
}
