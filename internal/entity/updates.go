package entity

// CharacterUpdates 角色更新字段（nil 表示不更新该列）
type CharacterUpdates struct {
	Name     *string
	Extra    *string
	Traits   *string
	Style    *string
	ImageURL *string
	ThumbURL *string
	Quote    *string
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u CharacterUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Extra != nil {
		updates["extra"] = *u.Extra
	}
	if u.Traits != nil {
		updates["traits"] = *u.Traits
	}
	if u.Style != nil {
		updates["style"] = *u.Style
	}
	if u.ImageURL != nil {
		updates["image_url"] = *u.ImageURL
	}
	if u.ThumbURL != nil {
		updates["thumb_url"] = *u.ThumbURL
	}
	if u.Quote != nil {
		updates["quote"] = *u.Quote
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u CharacterUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
