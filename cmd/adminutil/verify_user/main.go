package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/sudo-init-do/favo/internal/config"
	"github.com/sudo-init-do/favo/internal/db"
	"github.com/sudo-init-do/favo/internal/repository"
)

// verify_user sets or clears the verified badge of a user by email.
// Usage:
//
//	go run ./cmd/adminutil/verify_user -email user@example.com [-revoke]
func main() {
	email := flag.String("email", "", "Email of the user to verify")
	revoke := flag.Bool("revoke", false, "Remove the verified badge instead")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run ./cmd/adminutil/verify_user -email user@example.com [-revoke]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, cfg.DSN())
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := repository.NewUserRepo(pool).SetVerified(ctx, *email, !*revoke); err != nil {
		log.Fatalf("failed to update %s: %v", *email, err)
	}

	if *revoke {
		fmt.Printf("User %s is no longer verified.\n", *email)
		return
	}
	fmt.Printf("User %s verified.\n", *email)
}
