package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnknownCategory    = errors.New("unknown category")
)

// Store is the gorm-backed repository for every blog model.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the handle for migrations and health checks.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation covers gorm's translated error and lib/pq, whose errors
// gorm's postgres dialector does not translate.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// users

func (s *Store) CreateUser(ctx context.Context, u *User) error {
	err := s.db.WithContext(ctx).Create(u).Error
	if isUniqueViolation(err) {
		var n int64
		s.db.WithContext(ctx).Model(&User{}).Where("username = ?", u.Username).Count(&n)
		if n > 0 {
			return ErrDuplicateUsername
		}
		return ErrDuplicateEmail
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, id uint) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := s.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, err
}

func (s *Store) SetStaff(ctx context.Context, id uint, staff bool) error {
	res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("is_staff", staff)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive enables or disables the account. Disabled users cannot log in
// and their open sessions stop authenticating.
func (s *Store) SetActive(ctx context.Context, id uint, active bool) error {
	res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Authenticate returns the active user matching username and password.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// DeleteUser removes the user together with their sessions, posts and comments.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u User
		if err := tx.First(&u, id).Error; err != nil {
			return notFound(err)
		}
		var postIDs []uint
		if err := tx.Model(&Post{}).Where("author_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		for _, pid := range postIDs {
			if err := deletePost(tx, pid); err != nil {
				return err
			}
		}
		if err := tx.Where("author_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&Session{}).Error; err != nil {
			return err
		}
		return tx.Delete(&u).Error
	})
}

// sessions

// CreateSession revokes the user's open sessions before storing the new one.
func (s *Store) CreateSession(ctx context.Context, userID uint, id string, expires time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Session{}).
			Where("user_id = ? AND revoked_at IS NULL", userID).
			Update("revoked_at", time.Now().UTC()).Error; err != nil {
			return err
		}
		return tx.Omit("User").Create(&Session{ID: id, UserID: userID, ExpiresAt: expires}).Error
	})
}

func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	if err := s.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&sess).Error; err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

func (s *Store) RevokeSession(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", time.Now().UTC()).Error
}

// PurgeExpiredSessions deletes sessions that expired or were revoked before now.
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", now, now).
		Delete(&Session{})
	return res.RowsAffected, res.Error
}

// categories

func (s *Store) CreateCategory(ctx context.Context, c *Category) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *Store) GetCategory(ctx context.Context, id uint) (*Category, error) {
	var c Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	err := s.db.WithContext(ctx).Order("name, id").Find(&cats).Error
	return cats, err
}

func (s *Store) RenameCategory(ctx context.Context, id uint, name string) error {
	res := s.db.WithContext(ctx).Model(&Category{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory unlinks the category from its posts; the posts survive.
func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c Category
		if err := tx.First(&c, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Exec("DELETE FROM post_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
}

// posts

func loadCategories(tx *gorm.DB, ids []uint) ([]Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var cats []Category
	if err := tx.Where("id IN ?", ids).Find(&cats).Error; err != nil {
		return nil, err
	}
	if len(cats) != len(uniq(ids)) {
		return nil, ErrUnknownCategory
	}
	return cats, nil
}

func uniq(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// CreatePost stores p and links it to categoryIDs. p.AuthorID must be set.
func (s *Store) CreatePost(ctx context.Context, p *Post, categoryIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cats, err := loadCategories(tx, categoryIDs)
		if err != nil {
			return err
		}
		p.Categories = nil
		if err := tx.Omit("Author", "Categories").Create(p).Error; err != nil {
			return err
		}
		if len(cats) > 0 {
			if err := tx.Model(p).Association("Categories").Append(cats); err != nil {
				return err
			}
		}
		p.Categories = cats
		return nil
	})
}

// UpdatePost rewrites title, body and the category set of a post.
func (s *Store) UpdatePost(ctx context.Context, id uint, title, body string, categoryIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Post
		if err := tx.First(&p, id).Error; err != nil {
			return notFound(err)
		}
		cats, err := loadCategories(tx, categoryIDs)
		if err != nil {
			return err
		}
		if err := tx.Model(&p).Updates(map[string]any{"title": title, "body": body}).Error; err != nil {
			return err
		}
		if len(cats) == 0 {
			return tx.Model(&p).Association("Categories").Clear()
		}
		return tx.Model(&p).Association("Categories").Replace(cats)
	})
}

func deletePost(tx *gorm.DB, id uint) error {
	var p Post
	if err := tx.First(&p, id).Error; err != nil {
		return notFound(err)
	}
	if err := tx.Where("post_id = ?", id).Delete(&Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&p).Association("Categories").Clear(); err != nil {
		return err
	}
	return tx.Delete(&p).Error
}

// DeletePost removes the post, its comments and its category links.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deletePost(tx, id)
	})
}

func (s *Store) posts(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Author").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.name") }).
		Order("posts.created_on DESC, posts.id DESC")
}

func (s *Store) GetPost(ctx context.Context, id uint) (*Post, error) {
	var p Post
	if err := s.posts(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListPosts returns every post, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	err := s.posts(ctx).Find(&posts).Error
	return posts, err
}

// ListPostsByCategory returns the posts having at least one category whose
// name contains name, ignoring case. Each post appears once.
//
// Names are folded in Go: SQLite's LOWER and LIKE only fold ASCII.
func (s *Store) ListPostsByCategory(ctx context.Context, name string) ([]Post, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(name)
	var ids []uint
	for _, c := range cats {
		if strings.Contains(strings.ToLower(c.Name), want) {
			ids = append(ids, c.ID)
		}
	}
	posts := []Post{}
	if len(ids) == 0 {
		return posts, nil
	}

	matching := s.db.WithContext(ctx).Table("post_categories").
		Select("post_categories.post_id").
		Where("post_categories.category_id IN ?", ids)
	err = s.posts(ctx).Where("posts.id IN (?)", matching).Find(&posts).Error
	return posts, err
}

// comments

// CreateComment stores c. PostID and AuthorID must be set; a missing post
// yields ErrNotFound.
func (s *Store) CreateComment(ctx context.Context, c *Comment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Post{}).Where("id = ?", c.PostID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return tx.Omit("Post", "Author").Create(c).Error
	})
}

// ListComments returns the comments of a post, oldest first.
func (s *Store) ListComments(ctx context.Context, postID uint) ([]Comment, error) {
	var cs []Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_on, id").
		Find(&cs).Error
	return cs, err
}

func (s *Store) ListRecentComments(ctx context.Context, limit int) ([]Comment, error) {
	var cs []Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Post").
		Order("created_on DESC, id DESC").
		Limit(limit).
		Find(&cs).Error
	return cs, err
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
