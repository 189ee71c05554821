package entity

// GenerateCharacterRequest 对应 POST /generate 的请求体。
// traits 为必填；结构化字段仅作为元数据入库，便于之后重建 traits。
type GenerateCharacterRequest struct {
	Traits string `json:"traits"`
	Name   string `json:"name"`
	Race   string `json:"race"`
	Class  string `json:"clazz"`
	Mood   string `json:"mood"`
	BG     string `json:"bg"`
	Gender string `json:"gender"`
	Style  string `json:"style"`
	Extra  string `json:"extra"`
}

// UpdateCharacterRequest 对应 POST /api/character/:id（仅元数据）。
type UpdateCharacterRequest struct {
	Name   string `json:"name"`
	Extra  string `json:"extra"`
	Traits string `json:"traits"`
}

// RegenerateCharacterRequest 对应 POST /api/character/:id/regenerate。
// 空字符串表示沿用库中已有的值。
type RegenerateCharacterRequest struct {
	Extra  string `json:"extra"`
	Traits string `json:"traits"`
	Style  string `json:"style"`
}

// RegenerateCharacterResponse 重新生成成功后的响应。
type RegenerateCharacterResponse struct {
	OK       bool   `json:"ok"`
	ImageURL string `json:"image_url"`
	ThumbURL string `json:"thumb_url,omitempty"`
}

// QuoteResponse 台词生成响应。
type QuoteResponse struct {
	Quote string `json:"quote"`
}
