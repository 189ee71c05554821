package api

import (
	"chargen/internal/auth"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// loginFailureDelay 口令错误时的固定延迟，拖慢暴力枚举。
const loginFailureDelay = 350 * time.Millisecond

const loginPageTemplate = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>CharGen — Login</title>
  <style>
    body{margin:0;color:#111;font-family:system-ui,-apple-system,Segoe UI,Roboto,Arial;background:#fff}
    main{max-width:420px;margin:80px auto;padding:0 16px}
    .h1{font-size:20px;font-weight:800;margin:0 0 12px}
    .card{border:1px solid rgba(0,0,0,0.10);border-radius:14px;box-shadow:0 8px 28px rgba(0,0,0,0.07);padding:22px}
    label{display:block;font-size:12px;opacity:0.75;margin:0 0 6px}
    input{width:100%%;padding:12px;font-size:16px;box-sizing:border-box;border-radius:12px;border:1px solid rgba(0,0,0,0.15)}
    button{margin-top:12px;width:100%%;padding:12px 16px;font-size:16px;border-radius:12px;border:0;background:#0A60FF;color:#fff;font-weight:800}
    .err{margin-top:10px;color:#b00020;font-size:14px;font-weight:600}
  </style>
</head>
<body>
  <main>
    <div class="h1">Enter passphrase</div>
    <div class="card">
      <form method="post" action="/login">
        <label for="pass">Passphrase</label>
        <input id="pass" name="passphrase" type="password" placeholder="Passphrase" autofocus required />
        <button type="submit">Unlock</button>
        %s
      </form>
    </div>
  </main>
</body>
</html>`

const loginDisabledHTML = `<html><body style='font-family:system-ui,-apple-system,Segoe UI,Roboto,Arial; padding:16px'>` +
	`<h2 style='margin:0 0 8px'>Passphrase login not enabled</h2>` +
	`<div style='opacity:0.75'>Server is not configured with PASSPHRASE_SHA256. Use your token link (?t=...) instead.</div>` +
	`</body></html>`

// LoginPage GET /login 登录表单。口令登录未启用时给出明确提示而不是 503，
// 避免托管平台把错误页替换掉。
func (h *HTTPHandler) LoginPage(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	if h.sessionCodec == nil {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginDisabledHTML))
		return
	}

	if h.isSessionAuthed(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	errHTML := ""
	if errMsg := strings.TrimSpace(c.Query("err")); errMsg != "" {
		errHTML = fmt.Sprintf(`<div class="err">%s</div>`, html.EscapeString(errMsg))
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fmt.Sprintf(loginPageTemplate, errHTML)))
}

// LoginSubmit POST /login 校验口令并下发会话 cookie。
func (h *HTTPHandler) LoginSubmit(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	if h.sessionCodec == nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	passphrase := c.PostForm("passphrase")
	if !auth.VerifyPassphrase(h.cfg.PassphraseSHA256, passphrase) {
		time.Sleep(loginFailureDelay)
		c.Redirect(http.StatusFound, "/login?err=Wrong%20passphrase")
		return
	}

	token := h.sessionCodec.Issue(time.Now())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, int(auth.SessionTTL.Seconds()), "/", "", h.cfg.CookieSecure, true)
	c.Redirect(http.StatusFound, "/")
}

// Logout GET /logout 清除会话 cookie。
func (h *HTTPHandler) Logout(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", h.cfg.CookieSecure, true)
	c.Redirect(http.StatusFound, "/login")
}

// Whoami GET /api/whoami 调试接口：指出请求走的是哪条认证路径。
func (h *HTTPHandler) Whoami(c *gin.Context) {
	expected := strings.TrimSpace(h.cfg.AccessToken)
	if token := extractToken(c); token != "" && expected != "" && token == expected {
		c.JSON(http.StatusOK, gin.H{"ok": true, "auth": "token"})
		return
	}
	if h.isSessionAuthed(c) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "auth": "passphrase"})
		return
	}
	Unauthorized(c, "unauthorized")
}

// Index GET / 登录后的落地页。界面由独立前端提供，这里只给出 API 指引。
func (h *HTTPHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(
		`<html><body style='font-family:system-ui,-apple-system,Segoe UI,Roboto,Arial; padding:16px'>`+
			`<h2 style='margin:0 0 8px'>CharGen</h2>`+
			`<div style='opacity:0.75'>You are authenticated. API lives under /generate and /api/character/...; see /api/characters for recent portraits.</div>`+
			`</body></html>`))
}

// Ping GET /ping 健康检查，始终放行。
func (h *HTTPHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Robots GET /robots.txt 声明全站禁止抓取。
func (h *HTTPHandler) Robots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nDisallow: /\n")
}
