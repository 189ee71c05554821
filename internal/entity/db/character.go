package db

import "time"

// Character 表示一条已生成的角色立绘记录。
//
// traits 是驱动生成提示词的事实来源；用户编辑后可以与结构化字段
// (race/class/...) 不一致。image_url 指向对象存储中的当前成品图，
// thumb_url 为空时表示缩略图生成失败，展示方需回退到 image_url。
type Character struct {
	ID        string    `gorm:"column:id;type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name       string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Race       string `gorm:"column:race;type:varchar(100)" json:"race,omitempty"`
	Class      string `gorm:"column:class;type:varchar(100)" json:"class,omitempty"`
	Mood       string `gorm:"column:mood;type:varchar(100)" json:"mood,omitempty"`
	Background string `gorm:"column:background;type:varchar(100)" json:"background,omitempty"`
	Gender     string `gorm:"column:gender;type:varchar(100)" json:"gender,omitempty"`
	Style      string `gorm:"column:style;type:varchar(100)" json:"style,omitempty"`
	Extra      string `gorm:"column:extra;type:text" json:"extra,omitempty"`
	Traits     string `gorm:"column:traits;type:text;not null" json:"traits"`

	ImageURL string `gorm:"column:image_url;type:text;not null" json:"image_url"`
	ThumbURL string `gorm:"column:thumb_url;type:text" json:"thumb_url,omitempty"`
	Quote    string `gorm:"column:quote;type:text" json:"quote,omitempty"`
}

// TableName 指定表名。
func (Character) TableName() string {
	return "characters"
}
