package model

import (
	"chargen/internal/entity"
	"chargen/internal/entity/db"
	"context"
)

// Repository 定义数据库操作接口
type Repository interface {
	CreateCharacter(ctx context.Context, character *db.Character) error
	GetCharacter(ctx context.Context, id string) (*db.Character, error)
	// UpdateCharacter 必须恰好影响一行，否则返回 gorm.ErrRecordNotFound。
	UpdateCharacter(ctx context.Context, id string, updates entity.CharacterUpdates) error
	DeleteCharacter(ctx context.Context, id string) error
	ListCharacters(ctx context.Context, limit int) ([]db.Character, error)
}
