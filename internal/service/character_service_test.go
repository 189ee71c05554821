package service

import (
	"chargen/internal/entity"
	"chargen/internal/entity/db"
	"chargen/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"
)

type fakeRepo struct {
	characters map[string]*db.Character
}

func newFakeRepo(seed ...*db.Character) *fakeRepo {
	repo := &fakeRepo{characters: make(map[string]*db.Character)}
	for _, c := range seed {
		repo.characters[c.ID] = c
	}
	return repo
}

func (f *fakeRepo) CreateCharacter(_ context.Context, character *db.Character) error {
	f.characters[character.ID] = character
	return nil
}

func (f *fakeRepo) GetCharacter(_ context.Context, id string) (*db.Character, error) {
	character, ok := f.characters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *character
	return &copied, nil
}

func (f *fakeRepo) UpdateCharacter(_ context.Context, id string, updates entity.CharacterUpdates) error {
	character, ok := f.characters[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if updates.Name != nil {
		character.Name = *updates.Name
	}
	if updates.Extra != nil {
		character.Extra = *updates.Extra
	}
	if updates.Traits != nil {
		character.Traits = *updates.Traits
	}
	if updates.Style != nil {
		character.Style = *updates.Style
	}
	if updates.ImageURL != nil {
		character.ImageURL = *updates.ImageURL
	}
	if updates.ThumbURL != nil {
		character.ThumbURL = *updates.ThumbURL
	}
	if updates.Quote != nil {
		character.Quote = *updates.Quote
	}
	return nil
}

func (f *fakeRepo) DeleteCharacter(_ context.Context, id string) error {
	if _, ok := f.characters[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.characters, id)
	return nil
}

func (f *fakeRepo) ListCharacters(_ context.Context, limit int) ([]db.Character, error) {
	var out []db.Character
	for _, c := range f.characters {
		out = append(out, *c)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeLLM struct {
	imagePrompts []string
	textPrompts  []string
	imageData    []byte
	text         string
	imageErr     error
}

func (f *fakeLLM) GenerateImage(_ context.Context, prompt string) ([]byte, error) {
	f.imagePrompts = append(f.imagePrompts, prompt)
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return f.imageData, nil
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt string) (string, error) {
	f.textPrompts = append(f.textPrompts, prompt)
	return f.text, nil
}

type fakePublisher struct {
	published int
	deleted   []string
}

func (p *fakePublisher) Publish(_ context.Context, _ []byte) (storage.PublishedAsset, error) {
	p.published++
	return storage.PublishedAsset{
		ImageURL: fmt.Sprintf("https://cdn.example.com/chargen/%d.png", p.published),
		ThumbURL: fmt.Sprintf("https://cdn.example.com/chargen-thumbs/%d.png", p.published),
	}, nil
}

func (p *fakePublisher) DeleteIfOwned(_ context.Context, rawURL string) {
	p.deleted = append(p.deleted, rawURL)
}

func TestCreateCharacterEndToEnd(t *testing.T) {
	repo := newFakeRepo()
	client := &fakeLLM{imageData: []byte("png-bytes")}
	publisher := &fakePublisher{}
	svc := NewCharacterService(repo, client, publisher)

	character, imageData, err := svc.CreateCharacter(context.Background(), entity.GenerateCharacterRequest{
		Traits: "Dwarf, Cleric, grim expression",
		Name:   "Brunhilde",
		Race:   "Dwarf",
		Class:  "Cleric",
	})
	if err != nil {
		t.Fatalf("CreateCharacter: %v", err)
	}

	if string(imageData) != "png-bytes" {
		t.Errorf("image bytes = %q", imageData)
	}
	if len(client.imagePrompts) != 1 || !strings.Contains(client.imagePrompts[0], "Dwarf, Cleric, grim expression") {
		t.Errorf("prompt = %v", client.imagePrompts)
	}
	if !strings.Contains(client.imagePrompts[0], "Brunhilde") {
		t.Errorf("prompt should carry the name, got %q", client.imagePrompts[0])
	}

	stored, ok := repo.characters[character.ID]
	if !ok {
		t.Fatal("character row not stored")
	}
	if stored.ImageURL != "https://cdn.example.com/chargen/1.png" {
		t.Errorf("stored image url = %q", stored.ImageURL)
	}
	if stored.ThumbURL == "" {
		t.Error("stored thumb url should be set")
	}
}

func TestCreateCharacterComposesTraitsWhenMissing(t *testing.T) {
	repo := newFakeRepo()
	client := &fakeLLM{imageData: []byte("png")}
	svc := NewCharacterService(repo, client, &fakePublisher{})

	character, _, err := svc.CreateCharacter(context.Background(), entity.GenerateCharacterRequest{
		Race:  "Elf",
		Class: "Ranger",
		Mood:  "serene",
	})
	if err != nil {
		t.Fatalf("CreateCharacter: %v", err)
	}
	if want := "Elf, Ranger, serene expression"; character.Traits != want {
		t.Errorf("traits = %q, want %q", character.Traits, want)
	}
	if character.Name != "Unnamed" {
		t.Errorf("name = %q, want Unnamed", character.Name)
	}
}

func TestCreateCharacterMissingTraits(t *testing.T) {
	svc := NewCharacterService(newFakeRepo(), &fakeLLM{imageData: []byte("png")}, &fakePublisher{})
	_, _, err := svc.CreateCharacter(context.Background(), entity.GenerateCharacterRequest{Name: "Nameless"})
	if !errors.Is(err, ErrMissingTraits) {
		t.Fatalf("error = %v, want ErrMissingTraits", err)
	}
}

func TestCreateCharacterNotConfigured(t *testing.T) {
	svc := NewCharacterService(newFakeRepo(), nil, &fakePublisher{})
	_, _, err := svc.CreateCharacter(context.Background(), entity.GenerateCharacterRequest{Traits: "Dwarf"})
	if !errors.Is(err, ErrGenerationNotConfigured) {
		t.Fatalf("error = %v, want ErrGenerationNotConfigured", err)
	}

	svc = NewCharacterService(nil, &fakeLLM{}, &fakePublisher{})
	_, _, err = svc.CreateCharacter(context.Background(), entity.GenerateCharacterRequest{Traits: "Dwarf"})
	if !errors.Is(err, ErrRepositoryNotConfigured) {
		t.Fatalf("error = %v, want ErrRepositoryNotConfigured", err)
	}
}

func TestRegenerateRecomposesClearedTraits(t *testing.T) {
	seed := &db.Character{
		ID:       "c1",
		Name:     "Brunhilde",
		Race:     "Dwarf",
		Class:    "Cleric",
		Style:    "ink sketch",
		ImageURL: "https://cdn.example.com/chargen/old.png",
		ThumbURL: "https://cdn.example.com/chargen-thumbs/old.png",
	}
	repo := newFakeRepo(seed)
	client := &fakeLLM{imageData: []byte("png")}
	publisher := &fakePublisher{}
	svc := NewCharacterService(repo, client, publisher)

	resp, err := svc.RegenerateCharacter(context.Background(), "c1", entity.RegenerateCharacterRequest{})
	if err != nil {
		t.Fatalf("RegenerateCharacter: %v", err)
	}
	if !resp.OK {
		t.Error("response ok = false")
	}

	if len(client.imagePrompts) != 1 {
		t.Fatalf("image prompts = %d, want 1", len(client.imagePrompts))
	}
	prompt := client.imagePrompts[0]
	if !strings.Contains(prompt, "Dwarf, Cleric") {
		t.Errorf("recomposed prompt missing metadata: %q", prompt)
	}
	if !strings.Contains(prompt, "Style: ink sketch") {
		t.Errorf("prompt missing style tag: %q", prompt)
	}
	// 重新生成的提示词不带名字
	if strings.Contains(prompt, "Brunhilde") {
		t.Errorf("regenerate prompt should not carry the name: %q", prompt)
	}

	if repo.characters["c1"].ImageURL != resp.ImageURL {
		t.Errorf("row image url = %q, want %q", repo.characters["c1"].ImageURL, resp.ImageURL)
	}

	// 恰好一次删除，且只针对旧主图
	if len(publisher.deleted) != 1 || publisher.deleted[0] != "https://cdn.example.com/chargen/old.png" {
		t.Fatalf("deleted = %v, want exactly the previous image_url", publisher.deleted)
	}
}

func TestRegenerateStyleOverrideAppendsTag(t *testing.T) {
	seed := &db.Character{
		ID:       "c1",
		Name:     "Faelar",
		Traits:   "Elf, Ranger",
		Style:    "ink sketch",
		ImageURL: "https://cdn.example.com/chargen/old.png",
	}
	repo := newFakeRepo(seed)
	client := &fakeLLM{imageData: []byte("png")}
	svc := NewCharacterService(repo, client, &fakePublisher{})

	if _, err := svc.RegenerateCharacter(context.Background(), "c1", entity.RegenerateCharacterRequest{Style: "watercolor"}); err != nil {
		t.Fatalf("RegenerateCharacter: %v", err)
	}
	if want := "Elf, Ranger, Style: watercolor"; repo.characters["c1"].Traits != want {
		t.Errorf("traits = %q, want %q", repo.characters["c1"].Traits, want)
	}
	if repo.characters["c1"].Style != "watercolor" {
		t.Errorf("style = %q, want watercolor", repo.characters["c1"].Style)
	}
}

func TestRegenerateUnknownID(t *testing.T) {
	client := &fakeLLM{imageData: []byte("png")}
	svc := NewCharacterService(newFakeRepo(), client, &fakePublisher{})

	_, err := svc.RegenerateCharacter(context.Background(), "missing", entity.RegenerateCharacterRequest{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if len(client.imagePrompts) != 0 {
		t.Errorf("no generation should happen for unknown id, got %v", client.imagePrompts)
	}
}

func TestDeleteCharacter(t *testing.T) {
	seed := &db.Character{
		ID:       "c1",
		ImageURL: "https://cdn.example.com/chargen/a.png",
		ThumbURL: "https://cdn.example.com/chargen-thumbs/a.png",
	}
	repo := newFakeRepo(seed)
	publisher := &fakePublisher{}
	svc := NewCharacterService(repo, &fakeLLM{}, publisher)

	if err := svc.DeleteCharacter(context.Background(), "c1"); err != nil {
		t.Fatalf("DeleteCharacter: %v", err)
	}
	if _, ok := repo.characters["c1"]; ok {
		t.Error("row should be removed")
	}
	if len(publisher.deleted) != 1 || publisher.deleted[0] != "https://cdn.example.com/chargen/a.png" {
		t.Errorf("deleted = %v, want exactly the image_url", publisher.deleted)
	}
}

func TestDeleteCharacterUnknownID(t *testing.T) {
	publisher := &fakePublisher{}
	svc := NewCharacterService(newFakeRepo(), &fakeLLM{}, publisher)

	if err := svc.DeleteCharacter(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if len(publisher.deleted) != 0 {
		t.Errorf("no object deletes expected, got %v", publisher.deleted)
	}
}

func TestUpdateCharacter(t *testing.T) {
	repo := newFakeRepo(&db.Character{ID: "c1", Name: "Old"})
	svc := NewCharacterService(repo, &fakeLLM{}, &fakePublisher{})

	err := svc.UpdateCharacter(context.Background(), "c1", entity.UpdateCharacterRequest{
		Name:   "  New Name ",
		Extra:  "brave",
		Traits: "Dwarf",
	})
	if err != nil {
		t.Fatalf("UpdateCharacter: %v", err)
	}
	if repo.characters["c1"].Name != "New Name" {
		t.Errorf("name = %q", repo.characters["c1"].Name)
	}

	if err := svc.UpdateCharacter(context.Background(), "c1", entity.UpdateCharacterRequest{Name: "  "}); !errors.Is(err, ErrMissingName) {
		t.Fatalf("error = %v, want ErrMissingName", err)
	}
	if err := svc.UpdateCharacter(context.Background(), "missing", entity.UpdateCharacterRequest{Name: "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestGenerateQuote(t *testing.T) {
	repo := newFakeRepo(&db.Character{ID: "c1", Name: "Brunhilde", Traits: "Dwarf, Cleric"})
	client := &fakeLLM{text: "By my axe, I swear it."}
	svc := NewCharacterService(repo, client, &fakePublisher{})

	quote, err := svc.GenerateQuote(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GenerateQuote: %v", err)
	}
	if quote != "By my axe, I swear it." {
		t.Errorf("quote = %q", quote)
	}
	if len(client.textPrompts) != 1 || !strings.Contains(client.textPrompts[0], "Name: Brunhilde") {
		t.Errorf("text prompt = %v", client.textPrompts)
	}

	if _, err := svc.GenerateQuote(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
