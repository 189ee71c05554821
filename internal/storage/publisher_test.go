package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

type fakeStore struct {
	saves   []SaveOptions
	deletes []string
	failAll bool
}

func (f *fakeStore) Save(_ context.Context, data []byte, opts SaveOptions) (string, error) {
	if f.failAll {
		return "", context.DeadlineExceeded
	}
	f.saves = append(f.saves, opts)
	return buildObjectPath(opts.Category, opts.BaseName, opts.Extension), nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + strings.TrimLeft(key, "/")
}

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestPublishUploadsImageAndThumbnail(t *testing.T) {
	store := &fakeStore{}
	publisher := NewPublisher(store)

	asset, err := publisher.Publish(context.Background(), encodeTestPNG(t, 640, 480))
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if len(store.saves) != 2 {
		t.Fatalf("saves = %d, want 2", len(store.saves))
	}
	if store.saves[0].Category != portraitCategory {
		t.Errorf("first save category = %q, want %q", store.saves[0].Category, portraitCategory)
	}
	if store.saves[1].Category != thumbnailCategory {
		t.Errorf("second save category = %q, want %q", store.saves[1].Category, thumbnailCategory)
	}
	if !strings.HasPrefix(asset.ImageURL, "https://cdn.example.com/chargen/") {
		t.Errorf("image url = %q, want chargen prefix", asset.ImageURL)
	}
	if !strings.HasPrefix(asset.ThumbURL, "https://cdn.example.com/chargen-thumbs/") {
		t.Errorf("thumb url = %q, want chargen-thumbs prefix", asset.ThumbURL)
	}
}

func TestPublishSurvivesThumbnailFailure(t *testing.T) {
	store := &fakeStore{}
	publisher := NewPublisher(store)

	// 不是合法图片，缩略图渲染必然失败
	asset, err := publisher.Publish(context.Background(), []byte("not a png"))
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if asset.ImageURL == "" {
		t.Fatal("image url should be set even when thumbnail fails")
	}
	if asset.ThumbURL != "" {
		t.Fatalf("thumb url = %q, want empty", asset.ThumbURL)
	}
	if len(store.saves) != 1 {
		t.Fatalf("saves = %d, want 1", len(store.saves))
	}
}

func TestPublishEmptyPayload(t *testing.T) {
	publisher := NewPublisher(&fakeStore{})
	if _, err := publisher.Publish(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestDeleteIfOwned(t *testing.T) {
	store := &fakeStore{}
	publisher := NewPublisher(store)

	publisher.DeleteIfOwned(context.Background(), "https://cdn.example.com/chargen/2026/08/23/abc.png")
	if len(store.deletes) != 1 || store.deletes[0] != "chargen/2026/08/23/abc.png" {
		t.Fatalf("deletes = %v, want the owned key", store.deletes)
	}

	publisher.DeleteIfOwned(context.Background(), "https://elsewhere.example.net/chargen/abc.png")
	publisher.DeleteIfOwned(context.Background(), "")
	if len(store.deletes) != 1 {
		t.Fatalf("foreign or empty URLs must not trigger deletes, got %v", store.deletes)
	}
}

func TestDeleteIfOwnedStripsQuery(t *testing.T) {
	store := &fakeStore{}
	publisher := NewPublisher(store)

	publisher.DeleteIfOwned(context.Background(), "https://cdn.example.com/chargen/a.png?v=2")
	if len(store.deletes) != 1 || store.deletes[0] != "chargen/a.png" {
		t.Fatalf("deletes = %v, want key without query string", store.deletes)
	}
}

func TestRenderThumbnailSizeAndCrop(t *testing.T) {
	data, err := renderThumbnail(encodeTestPNG(t, 800, 400))
	if err != nil {
		t.Fatalf("renderThumbnail returned error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != thumbnailSize || bounds.Dy() != thumbnailSize {
		t.Fatalf("thumbnail is %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), thumbnailSize, thumbnailSize)
	}
}
