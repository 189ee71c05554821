package service

import (
	"chargen/internal/entity/db"
	"fmt"
	"strings"
)

// ComposeTraits 把结构化字段拼接为生成用的特征串。空字段跳过，
// mood 与 background 带修饰词，style 以 "Style:" 标签形式出现。
func ComposeTraits(race, class, mood, background, gender, style, extra string) string {
	var parts []string
	if race = strings.TrimSpace(race); race != "" {
		parts = append(parts, race)
	}
	if class = strings.TrimSpace(class); class != "" {
		parts = append(parts, class)
	}
	if mood = strings.TrimSpace(mood); mood != "" {
		parts = append(parts, mood+" expression")
	}
	if background = strings.TrimSpace(background); background != "" {
		parts = append(parts, background+" background")
	}
	if gender = strings.TrimSpace(gender); gender != "" {
		parts = append(parts, gender)
	}
	if style = strings.TrimSpace(style); style != "" {
		parts = append(parts, "Style: "+style)
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, ", ")
}

// EnsureStyleTag 保证选中的画风会影响生成结果：特征串里没有 Style:
// 标签（大小写不敏感）时追加一个，已有则原样返回。
func EnsureStyleTag(traits, style string) string {
	traits = strings.TrimSpace(traits)
	style = strings.TrimSpace(style)
	if style == "" || strings.Contains(strings.ToLower(traits), "style:") {
		return traits
	}
	if traits == "" {
		return "Style: " + style
	}
	return traits + ", Style: " + style
}

// BuildPortraitPrompt 生成头像绘制提示词。name 只影响气质，
// 明确要求不要把名字画进图里。
func BuildPortraitPrompt(traits, name string) string {
	prompt := "Create a Dungeons & Dragons style illustrated character avatar portrait. " +
		"Framed like a chat profile picture. Aspect ratio 1:1 (square). High quality fantasy art. " +
		"No text, no watermark, no signature.\n\n" +
		fmt.Sprintf("Character traits: %s\n", strings.TrimSpace(traits))
	if name = strings.TrimSpace(name); name != "" {
		prompt += fmt.Sprintf("\nCharacter name (for vibe only; do not write text): %s\n", name)
	}
	return prompt
}

// BuildQuotePrompt 根据已存储的角色信息生成台词提示词。
func BuildQuotePrompt(character *db.Character) string {
	return "Write ONE short quote (max 25 words) that this fantasy RPG character would say. " +
		"First-person voice. No quote marks. No emojis. No modern references. " +
		"Do not include the character's name unless it would naturally be spoken.\n\n" +
		fmt.Sprintf("Name: %s\n", character.Name) +
		fmt.Sprintf("Race: %s\nClass: %s\nMood: %s\nBackground: %s\nStyle: %s\n",
			character.Race, character.Class, character.Mood, character.Background, character.Style) +
		fmt.Sprintf("Details: %s\nTraits: %s\n", character.Extra, character.Traits)
}
