package api

import (
	"chargen/internal/entity"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Generate POST /generate 生成新角色立绘，响应体为原始 PNG 字节。
func (h *HTTPHandler) Generate(c *gin.Context) {
	var req entity.GenerateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	character, imageData, err := h.characterService.CreateCharacter(c.Request.Context(), req)
	if err != nil {
		logrus.WithError(err).Warn("character_generate_failed")
		serviceError(c, err)
		return
	}

	c.Header("X-Character-Id", character.ID)
	c.Data(http.StatusOK, "image/png", imageData)
}

// UpdateCharacter POST /api/character/:id 仅更新元数据。
func (h *HTTPHandler) UpdateCharacter(c *gin.Context) {
	var req entity.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	if err := h.characterService.UpdateCharacter(c.Request.Context(), c.Param("id"), req); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RegenerateCharacter POST /api/character/:id/regenerate 重新生成立绘。
// 允许空请求体，等价于全部沿用库中已有的值。
func (h *HTTPHandler) RegenerateCharacter(c *gin.Context) {
	var req entity.RegenerateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		InvalidPayload(c)
		return
	}

	resp, err := h.characterService.RegenerateCharacter(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		logrus.WithError(err).WithField("character_id", c.Param("id")).Warn("character_regenerate_failed")
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteCharacter POST /api/character/:id/delete 删除角色。
func (h *HTTPHandler) DeleteCharacter(c *gin.Context) {
	if err := h.characterService.DeleteCharacter(c.Request.Context(), c.Param("id")); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GenerateQuote POST /api/character/:id/quote 生成一句角色台词。
func (h *HTTPHandler) GenerateQuote(c *gin.Context) {
	quote, err := h.characterService.GenerateQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.QuoteResponse{Quote: quote})
}

// GetCharacter GET /api/character/:id 读取单条记录。
func (h *HTTPHandler) GetCharacter(c *gin.Context) {
	character, err := h.characterService.GetCharacter(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, character)
}

// ListCharacters GET /api/characters 按创建时间倒序列出最近的角色。
func (h *HTTPHandler) ListCharacters(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			BadRequest(c, ErrCodeInvalidRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	characters, err := h.characterService.ListCharacters(c.Request.Context(), limit)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": characters})
}
