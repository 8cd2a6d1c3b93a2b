package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/eastgatechurch/eastgate-app/config"
	"github.com/eastgatechurch/eastgate-app/pkg/helpers"
)

type seedMember struct {
	email     string
	firstName string
	lastName  string
	phone     string
	bio       string
	roles     string // postgres array literal
	verified  bool
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	password := "Password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	members := []seedMember{
		{"pastor@eastgate.church", "David", "Kim", "+1-555-0101", "Lead pastor.", `{"staff","worship"}`, true},
		{"sarah@eastgate.church", "Sarah", "Nguyen", "+1-555-0102", "Kids ministry coordinator.", `{"kids"}`, true},
		{"newmember@eastgate.church", "Jordan", "Lee", "", "", `{}`, false},
	}

	for _, m := range members {
		confirm := "NULL"
		if m.verified {
			confirm = "now()"
		}
		var id string
		err := db.QueryRow(fmt.Sprintf(`
			INSERT INTO users (email, password_hash, email_confirmed_at)
			VALUES ($1, $2, %s)
			ON CONFLICT (email) DO UPDATE SET updated_at = now()
			RETURNING id
		`, confirm), m.email, hash).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", m.email, err)
		}

		if _, err := db.Exec(`
			INSERT INTO profiles (id, first_name, last_name, email, phone, bio, ministry_roles)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name  = EXCLUDED.last_name,
				phone      = EXCLUDED.phone,
				bio        = EXCLUDED.bio,
				ministry_roles = EXCLUDED.ministry_roles
		`, id, m.firstName, m.lastName, m.email, m.phone, m.bio, m.roles); err != nil {
			log.Fatalf("failed to seed profile %s: %v", m.email, err)
		}
		fmt.Printf("seeded member: id=%s email=%s password=%s\n", id, m.email, password)
	}
}
