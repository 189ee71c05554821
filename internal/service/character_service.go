package service

import (
	"chargen/internal/entity"
	"chargen/internal/entity/db"
	"chargen/internal/llm"
	"chargen/internal/model"
	"chargen/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrNotFound 角色不存在。
	ErrNotFound = errors.New("character not found")
	// ErrRepositoryNotConfigured 数据库未配置。
	ErrRepositoryNotConfigured = errors.New("database is not configured")
	// ErrGenerationNotConfigured 生成服务未配置（缺少 API key）。
	ErrGenerationNotConfigured = errors.New("generation provider is not configured")
	// ErrMissingTraits 既没有 traits 也无法从结构化字段拼出。
	ErrMissingTraits = errors.New("missing traits")
	// ErrMissingName 更新时名字不能为空。
	ErrMissingName = errors.New("missing name")
	// ErrAssetUploadFailed 主图上传失败，整个操作中止。
	ErrAssetUploadFailed = errors.New("asset upload failed")
)

// AssetPublisher 发布生成产物并回收本服务拥有的旧对象。
type AssetPublisher interface {
	Publish(ctx context.Context, imageData []byte) (storage.PublishedAsset, error)
	DeleteIfOwned(ctx context.Context, rawURL string)
}

// CharacterService 角色生成业务逻辑：提示词拼装、图像生成、产物发布、
// 记录持久化串成一条流水线。
type CharacterService struct {
	repo      model.Repository
	llm       llm.Client
	publisher AssetPublisher
}

// NewCharacterService 创建服务实例。repo 或 client 为 nil 时对应操作
// 返回 not-configured 错误而不是崩溃。
func NewCharacterService(repo model.Repository, client llm.Client, publisher AssetPublisher) *CharacterService {
	return &CharacterService{
		repo:      repo,
		llm:       client,
		publisher: publisher,
	}
}

// CreateCharacter 生成一张新立绘并入库，返回记录与原始 PNG 字节。
// traits 为空时从结构化字段拼装。
func (s *CharacterService) CreateCharacter(ctx context.Context, req entity.GenerateCharacterRequest) (*db.Character, []byte, error) {
	if err := s.ready(); err != nil {
		return nil, nil, err
	}

	traits := strings.TrimSpace(req.Traits)
	if traits == "" {
		traits = ComposeTraits(req.Race, req.Class, req.Mood, req.BG, req.Gender, req.Style, req.Extra)
	}
	if traits == "" {
		return nil, nil, ErrMissingTraits
	}

	prompt := BuildPortraitPrompt(traits, req.Name)
	imageData, err := s.llm.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, nil, err
	}

	asset, err := s.publisher.Publish(ctx, imageData)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrAssetUploadFailed, err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Unnamed"
	}

	character := &db.Character{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Name:       name,
		Race:       strings.TrimSpace(req.Race),
		Class:      strings.TrimSpace(req.Class),
		Mood:       strings.TrimSpace(req.Mood),
		Background: strings.TrimSpace(req.BG),
		Gender:     strings.TrimSpace(req.Gender),
		Style:      strings.TrimSpace(req.Style),
		Extra:      strings.TrimSpace(req.Extra),
		Traits:     traits,
		ImageURL:   asset.ImageURL,
		ThumbURL:   asset.ThumbURL,
	}

	if err := s.createRow(character); err != nil {
		// 行没写进去，刚上传的对象已成孤儿，只记日志不回滚存储
		logrus.WithContext(ctx).WithFields(logrus.Fields{
			"image_url": asset.ImageURL,
		}).WithError(err).Warn("character_create_row_failed")
		return nil, nil, fmt.Errorf("create character: %w", err)
	}

	logrus.WithContext(ctx).WithFields(logrus.Fields{
		"character_id": character.ID,
		"name":         character.Name,
	}).Info("character_created")
	return character, imageData, nil
}

// RegenerateCharacter 按现有元数据（允许覆盖 extra/traits/style）重新
// 生成立绘：先更新记录指向新图，再尽力删除旧对象。
func (s *CharacterService) RegenerateCharacter(ctx context.Context, id string, req entity.RegenerateCharacterRequest) (entity.RegenerateCharacterResponse, error) {
	var resp entity.RegenerateCharacterResponse
	if err := s.ready(); err != nil {
		return resp, err
	}

	existing, err := s.repo.GetCharacter(ctx, id)
	if err != nil {
		return resp, mapRepoError(err)
	}

	style := existing.Style
	if v := strings.TrimSpace(req.Style); v != "" {
		style = v
	}
	extra := existing.Extra
	if v := strings.TrimSpace(req.Extra); v != "" {
		extra = v
	}
	traits := strings.TrimSpace(req.Traits)
	if traits == "" {
		traits = strings.TrimSpace(existing.Traits)
	}

	// 用户清空 traits 时按元数据重建
	if traits == "" {
		traits = ComposeTraits(existing.Race, existing.Class, existing.Mood, existing.Background, existing.Gender, style, extra)
	}
	traits = EnsureStyleTag(traits, style)
	if traits == "" {
		return resp, ErrMissingTraits
	}

	imageData, err := s.llm.GenerateImage(ctx, BuildPortraitPrompt(traits, ""))
	if err != nil {
		return resp, err
	}

	asset, err := s.publisher.Publish(ctx, imageData)
	if err != nil {
		return resp, fmt.Errorf("%w: %v", ErrAssetUploadFailed, err)
	}

	updates := entity.CharacterUpdates{
		Extra:    &extra,
		Traits:   &traits,
		Style:    &style,
		ImageURL: &asset.ImageURL,
		ThumbURL: &asset.ThumbURL,
	}
	if err := s.updateRow(id, updates); err != nil {
		// 记录在生成期间被删除，新上传的对象成为孤儿
		logrus.WithContext(ctx).WithFields(logrus.Fields{
			"character_id": id,
			"image_url":    asset.ImageURL,
		}).WithError(err).Warn("character_regenerate_row_update_failed")
		return resp, mapRepoError(err)
	}

	// 行已指向新图，旧对象可以回收；失败只影响存储成本
	s.publisher.DeleteIfOwned(ctx, existing.ImageURL)

	logrus.WithContext(ctx).WithFields(logrus.Fields{
		"character_id": id,
		"image_url":    asset.ImageURL,
	}).Info("character_regenerated")

	resp.OK = true
	resp.ImageURL = asset.ImageURL
	resp.ThumbURL = asset.ThumbURL
	return resp, nil
}

// DeleteCharacter 先删记录再尽力回收对象，保证记录删除一定生效。
func (s *CharacterService) DeleteCharacter(ctx context.Context, id string) error {
	if s.repo == nil {
		return ErrRepositoryNotConfigured
	}

	existing, err := s.repo.GetCharacter(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}

	if err := s.repo.DeleteCharacter(ctx, id); err != nil {
		return mapRepoError(err)
	}

	if s.publisher != nil {
		s.publisher.DeleteIfOwned(ctx, existing.ImageURL)
	}

	logrus.WithContext(ctx).WithField("character_id", id).Info("character_deleted")
	return nil
}

// UpdateCharacter 只更新元数据，不触发重新生成。名字必填。
func (s *CharacterService) UpdateCharacter(ctx context.Context, id string, req entity.UpdateCharacterRequest) error {
	if s.repo == nil {
		return ErrRepositoryNotConfigured
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ErrMissingName
	}
	extra := strings.TrimSpace(req.Extra)
	traits := strings.TrimSpace(req.Traits)

	updates := entity.CharacterUpdates{
		Name:   &name,
		Extra:  &extra,
		Traits: &traits,
	}
	return mapRepoError(s.repo.UpdateCharacter(ctx, id, updates))
}

// GenerateQuote 生成一句角色台词。结果不入库，由前端决定如何使用。
func (s *CharacterService) GenerateQuote(ctx context.Context, id string) (string, error) {
	if s.repo == nil {
		return "", ErrRepositoryNotConfigured
	}
	if s.llm == nil {
		return "", ErrGenerationNotConfigured
	}

	existing, err := s.repo.GetCharacter(ctx, id)
	if err != nil {
		return "", mapRepoError(err)
	}

	quote, err := s.llm.GenerateText(ctx, BuildQuotePrompt(existing))
	if err != nil {
		return "", err
	}

	logrus.WithContext(ctx).WithFields(logrus.Fields{
		"character_id":  id,
		"quote_preview": quote,
	}).Info("character_quote_generated")
	return quote, nil
}

// GetCharacter 读取单条记录。
func (s *CharacterService) GetCharacter(ctx context.Context, id string) (*db.Character, error) {
	if s.repo == nil {
		return nil, ErrRepositoryNotConfigured
	}
	character, err := s.repo.GetCharacter(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return character, nil
}

// ListCharacters 按创建时间倒序列出最近的角色。
func (s *CharacterService) ListCharacters(ctx context.Context, limit int) ([]db.Character, error) {
	if s.repo == nil {
		return nil, ErrRepositoryNotConfigured
	}
	return s.repo.ListCharacters(ctx, limit)
}

func (s *CharacterService) ready() error {
	if s.repo == nil {
		return ErrRepositoryNotConfigured
	}
	if s.llm == nil {
		return ErrGenerationNotConfigured
	}
	return nil
}

// createRow / updateRow 在发布成功后写库。使用独立的超时上下文，
// 避免客户端断开导致已上传的对象丢失数据库引用。
func (s *CharacterService) createRow(character *db.Character) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.repo.CreateCharacter(ctx, character)
}

func (s *CharacterService) updateRow(id string, updates entity.CharacterUpdates) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.repo.UpdateCharacter(ctx, id, updates)
}

func mapRepoError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
