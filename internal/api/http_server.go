package api

import (
	"chargen/internal/auth"
	"chargen/internal/config"
	"chargen/internal/service"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg              config.Config
	characterService *service.CharacterService

	// sessionCodec 为 nil 时表示口令登录未启用，仅剩 token 认证。
	sessionCodec *auth.SessionCodec
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, characterService *service.CharacterService) (*HTTPHandler, error) {
	var codec *auth.SessionCodec
	if auth.DigestConfigured(cfg.PassphraseSHA256) {
		var err error
		codec, err = auth.NewSessionCodec(cfg.PassphraseSHA256)
		if err != nil {
			return nil, err
		}
	}

	return &HTTPHandler{
		cfg:              cfg,
		characterService: characterService,
		sessionCodec:     codec,
	}, nil
}
