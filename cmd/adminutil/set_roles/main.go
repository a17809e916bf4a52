package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/sudo-init-do/favo/internal/config"
	"github.com/sudo-init-do/favo/internal/db"
	"github.com/sudo-init-do/favo/internal/domain"
	"github.com/sudo-init-do/favo/internal/repository"
)

// set_roles changes whether a user acts as provider and/or requester.
// Usage:
//
//	go run ./cmd/adminutil/set_roles -email user@example.com -proveedor=true -demanda=false
func main() {
	email := flag.String("email", "", "Email of the user to update")
	proveedor := flag.String("proveedor", "", "true or false; empty leaves it unchanged")
	demanda := flag.String("demanda", "", "true or false; empty leaves it unchanged")
	flag.Parse()

	if *email == "" || (*proveedor == "" && *demanda == "") {
		log.Fatalf("usage: go run ./cmd/adminutil/set_roles -email user@example.com [-proveedor=true|false] [-demanda=true|false]")
	}

	var upd domain.ProfileUpdate
	var err error
	if upd.EsProveedor, err = parseFlag("proveedor", *proveedor); err != nil {
		log.Fatal(err)
	}
	if upd.EsDemanda, err = parseFlag("demanda", *demanda); err != nil {
		log.Fatal(err)
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

	users := repository.NewUserRepo(pool)
	u, err := users.GetByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("no user found with email %s: %v", *email, err)
	}
	u, err = users.UpdateProfile(ctx, u.ID, upd)
	if err != nil {
		log.Fatalf("failed to update roles: %v", err)
	}

	fmt.Printf("User %s now has roles %v.\n", u.Email, u.Roles())
}

func parseFlag(name, raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("-%s must be true or false", name)
	}
	return &b, nil
}
