package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"emotion-diary/internal/config"
	"emotion-diary/internal/service"
)

// issue_token imprime un token de operador para las rutas de administración de modelos.
func main() {
	operator := flag.String("operator", "", "operator name (token subject)")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to OPERATOR_TOKEN_TTL")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *operator == "" {
		flag.Usage()
		os.Exit(2)
	}

	lifetime := cfg.OperatorTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	tokens := service.NewTokenService(cfg.JWTSecret, lifetime)
	if !tokens.Enabled() {
		log.Fatal("JWT_SECRET is not set")
	}

	token, expires, err := tokens.Issue(*operator)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expires.Format(time.RFC3339))
}
