package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"blog/internal/config"
	"blog/internal/db"
	"blog/internal/models"
)

func main() {
	users := flag.Int("users", 5, "number of users to create")
	categories := flag.Int("categories", 6, "number of categories to create")
	posts := flag.Int("posts", 20, "number of posts to create")
	comments := flag.Int("comments", 4, "maximum comments per post")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	database, err := db.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(database)

	faker := gofakeit.New(*seed)
	s := &seeder{store: models.NewStore(database), faker: faker}
	if err := s.run(context.Background(), *users, *categories, *posts, *comments); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

type seeder struct {
	store *models.Store
	faker *gofakeit.Faker
}

func (s *seeder) run(ctx context.Context, nUsers, nCategories, nPosts, maxComments int) error {
	// every seeded account shares one password; hashing is slow
	hash, err := models.HashPassword("password123")
	if err != nil {
		return err
	}
	var users []models.User
	for i := 0; i < nUsers; i++ {
		u := models.User{
			Username:     strings.ToLower(s.faker.Username()) + s.faker.DigitN(3),
			Email:        s.faker.Email(),
			PasswordHash: hash,
			IsStaff:      i == 0,
			IsActive:     true,
		}
		if err := s.store.CreateUser(ctx, &u); err != nil {
			return err
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return nil
	}

	var catIDs []uint
	for i := 0; i < nCategories; i++ {
		c := models.Category{Name: s.faker.HipsterWord()}
		if err := s.store.CreateCategory(ctx, &c); err != nil {
			return err
		}
		catIDs = append(catIDs, c.ID)
	}

	for i := 0; i < nPosts; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		p := models.Post{
			Title:     strings.TrimSuffix(s.faker.Sentence(s.faker.Number(3, 8)), "."),
			Body:      s.faker.Paragraph(s.faker.Number(2, 5), 4, 12, "\n\n"),
			AuthorID:  author.ID,
			CreatedOn: s.faker.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()).UTC(),
		}
		if err := s.store.CreatePost(ctx, &p, s.pick(catIDs)); err != nil {
			return err
		}
		for j := s.faker.Number(0, maxComments); j > 0; j-- {
			c := models.Comment{
				Body:     s.faker.Sentence(s.faker.Number(4, 20)),
				PostID:   p.ID,
				AuthorID: users[s.faker.Number(0, len(users)-1)].ID,
			}
			if err := s.store.CreateComment(ctx, &c); err != nil {
				return err
			}
		}
	}
	log.Printf("seeded %d users (first is staff, password %q), %d categories, %d posts",
		len(users), "password123", len(catIDs), nPosts)
	return nil
}

// pick returns up to three distinct ids from ids.
func (s *seeder) pick(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	n := s.faker.Number(1, min(3, len(ids)))
	shuffled := append([]uint(nil), ids...)
	s.faker.ShuffleAnySlice(shuffled)
	return shuffled[:n]
}
