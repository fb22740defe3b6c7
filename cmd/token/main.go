// Command token prints an access token for a submitter, signed with the
// configured JWT secret. It is meant for local development and smoke tests;
// production tokens come from the upstream identity service.
//
// Usage:
//
//	COURSEGEN_AUTH_JWT_SECRET=... go run ./cmd/token -subject alice
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/phrazzld/coursegen/internal/config"
	"github.com/phrazzld/coursegen/internal/service/auth"
)

func main() {
	subject := flag.String("subject", "", "submitter id to put in the token")
	flag.Parse()

	if err := run(context.Background(), *subject); err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, subject string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	svc, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return err
	}

	token, err := svc.GenerateToken(ctx, subject)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
