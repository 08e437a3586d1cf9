package models

import (
	"fmt"
	"time"
)

// User is the site account. Staff users may use the admin pages.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:150;uniqueIndex;not null"`
	Email        string    `gorm:"size:254;uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	IsStaff      bool      `gorm:"not null;default:false"`
	IsActive     bool      `gorm:"not null"`
	DateJoined   time.Time `gorm:"autoCreateTime"`
}

func (u User) String() string { return u.Username }

type Session struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    uint   `gorm:"not null;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt *time.Time
}

// Valid reports whether the session can still authenticate a request at now.
func (s *Session) Valid(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:50;not null"`
}

func (Category) TableName() string { return "categories" }

// VerboseNamePlural is the label used by the admin pages.
func (Category) VerboseNamePlural() string { return "Categories" }

func (c Category) String() string { return c.Name }

// Post is a blog article. Posts are listed newest first.
type Post struct {
	ID         uint       `gorm:"primaryKey"`
	Title      string     `gorm:"size:255;not null"`
	Body       string     `gorm:"type:text;not null"`
	CreatedOn  time.Time  `gorm:"autoCreateTime"`
	UpdatedOn  time.Time  `gorm:"autoUpdateTime"`
	Categories []Category `gorm:"many2many:post_categories;constraint:OnDelete:CASCADE"`
	AuthorID   uint       `gorm:"not null;index"`
	Author     User       `gorm:"constraint:OnDelete:CASCADE"`
}

func (p Post) String() string { return p.Title }

type Comment struct {
	ID        uint      `gorm:"primaryKey"`
	Body      string    `gorm:"type:text;not null"`
	CreatedOn time.Time `gorm:"autoCreateTime"`
	PostID    uint      `gorm:"not null;index"`
	Post      Post      `gorm:"constraint:OnDelete:CASCADE"`
	AuthorID  uint      `gorm:"not null;index"`
	Author    User      `gorm:"constraint:OnDelete:CASCADE"`
}

// String needs Author and Post loaded to be meaningful.
func (c Comment) String() string {
	return fmt.Sprintf("%s on %s", c.Author, c.Post)
}

// All lists every model for migrations, parents first.
func All() []any {
	return []any{&User{}, &Session{}, &Category{}, &Post{}, &Comment{}}
}
