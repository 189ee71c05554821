package main

import (
	"chargen/internal/api"
	"chargen/internal/config"
	"chargen/internal/llm"
	"chargen/internal/model"
	"chargen/internal/service"
	"chargen/internal/storage"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 初始化配置
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	// 初始化logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise generation client")
		return
	}
	if llmClient == nil {
		logrus.Warn("generation provider credentials missing, generate endpoints will return 503")
	}

	characterService := service.NewCharacterService(repo, llmClient, storage.NewPublisher(store))

	httpHandler, err := api.NewHTTPHandler(cfg, characterService)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())
	r.Use(httpHandler.AuthGate())

	// 门禁放行的路径
	r.GET("/ping", httpHandler.Ping)
	r.GET("/robots.txt", httpHandler.Robots)
	r.GET("/login", httpHandler.LoginPage)
	r.POST("/login", httpHandler.LoginSubmit)
	r.GET("/logout", httpHandler.Logout)

	// 生成与角色管理
	r.GET("/", httpHandler.Index)
	r.POST("/generate", httpHandler.Generate)

	apiGroup := r.Group("/api")
	apiGroup.GET("/whoami", httpHandler.Whoami)
	apiGroup.GET("/characters", httpHandler.ListCharacters)
	apiGroup.GET("/character/:id", httpHandler.GetCharacter)
	apiGroup.POST("/character/:id", httpHandler.UpdateCharacter)
	apiGroup.POST("/character/:id/regenerate", httpHandler.RegenerateCharacter)
	apiGroup.POST("/character/:id/delete", httpHandler.DeleteCharacter)
	apiGroup.POST("/character/:id/quote", httpHandler.GenerateQuote)

	// 本地存储时直接托管产物目录
	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/files"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logrus.WithField("host", serverHost).Info("服务器启动")
	// 创建HTTP服务器；生成请求可能长达数分钟，超时放宽
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  900 * time.Second,
		WriteTimeout: 900 * time.Second,
		IdleTimeout:  1200 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Error("服务器启动失败")
	}
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// 处理请求
		c.Next()
		// 记录请求结束
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
