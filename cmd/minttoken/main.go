// Command minttoken issues a bearer token for local development, signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
)

func main() {
	userID := flag.String("user", "", "user id to embed in the token")
	name := flag.String("name", "", "display name to embed in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_TTL)")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: minttoken -user <id> [-name <name>] [-ttl 1h]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	lifetime := cfg.JWTTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	token, err := mint(cfg.JWTSecret, cfg.JWTIssuer, lifetime, *userID, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func mint(secret, issuer string, ttl time.Duration, userID, name string) (string, error) {
	if name == "" {
		name = userID
	}
	return auth.NewJWTManager(secret, issuer, ttl).Generate(userID, name)
}
