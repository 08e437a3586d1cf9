package main

import (
	"context"
	"flag"
	"log"

	"blog/internal/config"
	"blog/internal/db"
	"blog/internal/forms"
	"blog/internal/models"
)

func main() {
	username := flag.String("username", "", "username of the new account")
	email := flag.String("email", "", "email of the new account")
	password := flag.String("password", "", "password of the new account")
	staff := flag.Bool("staff", true, "grant access to the admin pages")
	flag.Parse()

	form := &forms.RegisterForm{Username: *username, Email: *email, Password: *password, ConfirmPassword: *password}
	if !form.Validate() {
		flag.Usage()
		for field, msg := range form.Errors {
			log.Printf("%s: %s", field, msg)
		}
		log.Fatal("invalid account details")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	database, err := db.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(database)

	hash, err := models.HashPassword(*password)
	if err != nil {
		log.Fatal(err)
	}
	u := &models.User{Username: *username, Email: *email, PasswordHash: hash, IsStaff: *staff, IsActive: true}
	if err := models.NewStore(database).CreateUser(context.Background(), u); err != nil {
		log.Fatalf("create user: %v", err)
	}
	log.Printf("created user %s (id %d, staff=%t)", u.Username, u.ID, u.IsStaff)
}
