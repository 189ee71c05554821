package sql

import (
	"chargen/internal/entity"
	"chargen/internal/entity/db"
	"context"

	"gorm.io/gorm"
)

// CreateCharacter 插入新角色记录
func (r *GormRepository) CreateCharacter(ctx context.Context, character *db.Character) error {
	return r.db.WithContext(ctx).Create(character).Error
}

// GetCharacter 按主键读取角色
func (r *GormRepository) GetCharacter(ctx context.Context, id string) (*db.Character, error) {
	var character db.Character
	if err := r.db.WithContext(ctx).First(&character, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &character, nil
}

// UpdateCharacter 更新角色字段；未命中任何行视为记录不存在
func (r *GormRepository) UpdateCharacter(ctx context.Context, id string, updates entity.CharacterUpdates) error {
	values := updates.ToMap()
	if len(values) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&db.Character{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCharacter 按主键删除角色
func (r *GormRepository) DeleteCharacter(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&db.Character{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListCharacters 按创建时间倒序列出最近的角色
func (r *GormRepository) ListCharacters(ctx context.Context, limit int) ([]db.Character, error) {
	if limit <= 0 {
		limit = 60
	}

	var characters []db.Character
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&characters).Error
	if err != nil {
		return nil, err
	}
	return characters, nil
}
