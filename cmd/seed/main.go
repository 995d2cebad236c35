package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consultwise/expert-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedExperts(context.Background(), pool, 50); err != nil {
		log.Fatalf("seed experts: %v", err)
	}
	if err := seedUsers(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed users: %v", err)
	}

	log.Println("seed complete")
}

func seedExperts(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d experts", count)

	specialties := []string{
		"Career Counseling",
		"Family Therapy",
		"Cognitive Behavioral Therapy",
		"Stress Management",
		"Adolescent Counseling",
		"Relationship Counseling",
		"Grief Counseling",
		"Mindfulness Coaching",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		userID := uuid.New()
		name := gofakeit.Name()
		// suffix keeps usernames unique across the batch
		username := fmt.Sprintf("%s_e%03d", strings.ToLower(gofakeit.Username()), i)

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, username, nickname, role, created_at, updated_at)
			VALUES ($1, $2, $3, 'expert', now(), now())
		`, userID, username, name)
		if err != nil {
			return err
		}

		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		_, err = tx.Exec(ctx, `
			INSERT INTO experts (id, user_id, name, specialty, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'online', now(), now())
		`, uuid.New(), userID, name, spec)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("experts seeded")
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d users", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO users (id, username, nickname, role, created_at, updated_at)
				VALUES ($1, $2, $3, 'user', now(), now())
			`, uuid.New(), fmt.Sprintf("%s_u%05d", strings.ToLower(gofakeit.Username()), i), gofakeit.Name())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("users seeded: %d/%d", end, count)
	}

	log.Println("users seeded")
	return nil
}
