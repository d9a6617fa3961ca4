// Command token mints a bearer token for local testing of the socket and the API.
package main

import (
	"flag"
	"fmt"
	"kinder-chat/auth"
	"kinder-chat/domain"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	JwtSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JwtIssuer string        `envconfig:"JWT_ISSUER"`
	TTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
}

func main() {
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	userID := flag.String("user", "", "user id carried by the token")
	role := flag.String("role", string(domain.RoleParent), "admin, teacher or parent")
	username := flag.String("username", "", "display username, defaults to the user id")
	ttl := flag.Duration("ttl", config.TTL, "token lifetime")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user is required")
	}
	switch domain.Role(*role) {
	case domain.RoleAdmin, domain.RoleTeacher, domain.RoleParent:
	default:
		log.Fatalf("unknown role %q", *role)
	}
	if *username == "" {
		*username = *userID
	}

	token, err := auth.NewTokenService(config.JwtSecret, config.JwtIssuer).
		GenerateToken(domain.Identity{UserID: *userID, Role: domain.Role(*role), Username: *username}, *ttl)
	if err != nil {
		log.Fatalf("Signing failed: %v", err)
	}
	fmt.Println(token)
}
