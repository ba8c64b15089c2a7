package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// create-client registers an API client for the admin surface and
// prints its key. The key is only shown once.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	name := flag.String("name", "", "client name (required)")
	permissions := flag.String("permissions", "patterns:recompute", "comma-separated permission list, * grants everything")
	dsn := flag.String("dsn", os.Getenv("DATABASE_DSN"), "postgres DSN (defaults to DATABASE_DSN)")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: create-client -name <name> [-permissions <p1,p2>] [-dsn <dsn>]")
		os.Exit(2)
	}
	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "create-client: no DSN; set DATABASE_DSN or pass -dsn")
		os.Exit(2)
	}

	apiKey, err := generateKey()
	if err != nil {
		slog.Error("failed to generate api key", "error", err)
		os.Exit(1)
	}

	perms := []string{}
	for _, p := range strings.Split(*permissions, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	permsJSON, err := json.Marshal(perms)
	if err != nil {
		slog.Error("failed to marshal permissions", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	var id int
	err = db.QueryRow(`
		INSERT INTO api_clients (name, api_key, is_active, permissions, metadata)
		VALUES ($1, $2, true, $3, '{}')
		RETURNING id
	`, *name, apiKey, permsJSON).Scan(&id)
	if err != nil {
		slog.Error("failed to create client", "name", *name, "error", err)
		os.Exit(1)
	}

	slog.Info("client created", "id", id, "name", *name, "permissions", perms)
	fmt.Printf("API key for %s (store it now, it is not shown again):\n%s\n", *name, apiKey)
}

func generateKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "sk_" + hex.EncodeToString(buf), nil
}
