package service

import (
	"chargen/internal/entity/db"
	"strings"
	"testing"
)

func TestComposeTraits(t *testing.T) {
	tests := []struct {
		name                                             string
		race, class, mood, background, gender, style, ex string
		want                                             string
	}{
		{
			name: "all fields",
			race: "Dwarf", class: "Cleric", mood: "grim", background: "mountain",
			gender: "male", style: "oil painting", ex: "braided beard",
			want: "Dwarf, Cleric, grim expression, mountain background, male, Style: oil painting, braided beard",
		},
		{
			name: "partial fields",
			race: "Elf", mood: "serene",
			want: "Elf, serene expression",
		},
		{
			name: "whitespace only fields are skipped",
			race: "  ", class: "Rogue", style: " ",
			want: "Rogue",
		},
		{
			name: "empty",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeTraits(tt.race, tt.class, tt.mood, tt.background, tt.gender, tt.style, tt.ex)
			if got != tt.want {
				t.Errorf("ComposeTraits = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnsureStyleTag(t *testing.T) {
	tests := []struct {
		name   string
		traits string
		style  string
		want   string
	}{
		{"appends tag", "Dwarf, Cleric", "watercolor", "Dwarf, Cleric, Style: watercolor"},
		{"already tagged", "Dwarf, Style: ink", "watercolor", "Dwarf, Style: ink"},
		{"case insensitive detection", "Dwarf, STYLE: ink", "watercolor", "Dwarf, STYLE: ink"},
		{"empty traits", "", "watercolor", "Style: watercolor"},
		{"empty style keeps traits", "Dwarf", "", "Dwarf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnsureStyleTag(tt.traits, tt.style); got != tt.want {
				t.Errorf("EnsureStyleTag(%q, %q) = %q, want %q", tt.traits, tt.style, got, tt.want)
			}
		})
	}
}

func TestBuildPortraitPrompt(t *testing.T) {
	prompt := BuildPortraitPrompt("Dwarf, Cleric", "Brunhilde")

	if !strings.Contains(prompt, "Character traits: Dwarf, Cleric\n") {
		t.Errorf("prompt missing traits line: %q", prompt)
	}
	if !strings.Contains(prompt, "Character name (for vibe only; do not write text): Brunhilde\n") {
		t.Errorf("prompt missing name line: %q", prompt)
	}
	if !strings.Contains(prompt, "Aspect ratio 1:1") {
		t.Errorf("prompt missing framing instructions: %q", prompt)
	}
}

func TestBuildPortraitPromptWithoutName(t *testing.T) {
	prompt := BuildPortraitPrompt("Elf, Ranger", "")
	if strings.Contains(prompt, "Character name") {
		t.Errorf("prompt should not mention a name: %q", prompt)
	}
}

func TestBuildQuotePrompt(t *testing.T) {
	prompt := BuildQuotePrompt(&db.Character{
		Name:       "Brunhilde",
		Race:       "Dwarf",
		Class:      "Cleric",
		Mood:       "grim",
		Background: "mountain",
		Style:      "oil painting",
		Extra:      "braided beard",
		Traits:     "Dwarf, Cleric",
	})

	for _, fragment := range []string{
		"ONE short quote",
		"Name: Brunhilde",
		"Race: Dwarf",
		"Class: Cleric",
		"Details: braided beard",
		"Traits: Dwarf, Cleric",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("quote prompt missing %q", fragment)
		}
	}
}
