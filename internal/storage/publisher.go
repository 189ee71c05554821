package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	_ "image/jpeg"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

const (
	portraitCategory  = "chargen"
	thumbnailCategory = "chargen-thumbs"
	thumbnailSize     = 256
)

// PublishedAsset 上传结果。ThumbURL 为空表示缩略图生成或上传失败，
// 全尺寸图仍然有效。
type PublishedAsset struct {
	ImageURL string
	ThumbURL string
}

// Publisher 把生成的图像字节落盘到对象存储并生成方形缩略图。
type Publisher struct {
	store Storage
}

func NewPublisher(store Storage) *Publisher {
	return &Publisher{store: store}
}

// Publish 上传全尺寸 PNG 并尽力生成 256x256 缩略图。缩略图任一步骤
// 失败只记录日志，不影响主图发布。
func (p *Publisher) Publish(ctx context.Context, imageData []byte) (PublishedAsset, error) {
	if len(imageData) == 0 {
		return PublishedAsset{}, errors.New("empty image payload")
	}

	key, err := p.store.Save(ctx, imageData, SaveOptions{
		Category:  portraitCategory,
		Extension: "png",
	})
	if err != nil {
		return PublishedAsset{}, fmt.Errorf("save image: %w", err)
	}

	asset := PublishedAsset{ImageURL: p.store.PublicURL(key)}

	thumbData, err := renderThumbnail(imageData)
	if err != nil {
		logrus.WithContext(ctx).WithError(err).Warn("asset_thumbnail_render_failed")
		return asset, nil
	}

	thumbKey, err := p.store.Save(ctx, thumbData, SaveOptions{
		Category:  thumbnailCategory,
		Extension: "png",
	})
	if err != nil {
		logrus.WithContext(ctx).WithError(err).Warn("asset_thumbnail_save_failed")
		return asset, nil
	}

	asset.ThumbURL = p.store.PublicURL(thumbKey)
	logrus.WithContext(ctx).WithFields(logrus.Fields{
		"image_url": asset.ImageURL,
		"thumb_url": asset.ThumbURL,
	}).Info("asset_publish_success")
	return asset, nil
}

// DeleteIfOwned 删除 URL 指向的对象，但仅当该 URL 属于本服务的存储。
// 外部 URL 与删除失败都只记录日志；调用方不依赖删除结果。
func (p *Publisher) DeleteIfOwned(ctx context.Context, rawURL string) {
	key, ok := p.ownedKey(rawURL)
	if !ok {
		logrus.WithContext(ctx).WithField("url", rawURL).Debug("asset_delete_skipped_foreign_url")
		return
	}

	if err := p.store.Delete(ctx, key); err != nil {
		logrus.WithContext(ctx).WithFields(logrus.Fields{
			"url": rawURL,
			"key": key,
		}).WithError(err).Warn("asset_delete_failed")
		return
	}
	logrus.WithContext(ctx).WithField("key", key).Info("asset_delete_success")
}

// ownedKey 从公开 URL 反推对象 key。URL 不在本服务公开前缀下时返回 false。
func (p *Publisher) ownedKey(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}

	base := p.store.PublicURL("")
	if base == "" || !strings.HasPrefix(rawURL, base) {
		return "", false
	}

	key := strings.TrimLeft(strings.TrimPrefix(rawURL, base), "/")
	if idx := strings.IndexAny(key, "?#"); idx >= 0 {
		key = key[:idx]
	}
	if key == "" {
		return "", false
	}
	return key, true
}

// renderThumbnail 居中裁切为正方形后缩放到 256x256。
func renderThumbnail(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}
	if side <= 0 {
		return nil, errors.New("image has no pixels")
	}

	x0 := bounds.Min.X + (bounds.Dx()-side)/2
	y0 := bounds.Min.Y + (bounds.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, thumbnailSize, thumbnailSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
