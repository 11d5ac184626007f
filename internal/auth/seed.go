package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
)

// seedPasswordBytes is the number of random bytes for each seed password.
const seedPasswordBytes = 16

// SeedAccounts are the accounts created on first boot, one per role.
var SeedAccounts = []struct {
	Username string
	Role     Role
}{
	{"admin", RoleAdmin},
	{"doctor", RoleDoctor},
	{"nurse", RoleNurse},
}

// SeedCredential is a generated first-boot login.
type SeedCredential struct {
	Username string
	Role     Role
	Password string
}

// SeedUsers creates the initial accounts on first boot if no users exist.
// Generated passwords are written once to out and never logged; they must
// be changed immediately. Returns nil if seeding was skipped.
func SeedUsers(ctx context.Context, users UserRepository, iterations int, out io.Writer, logger *slog.Logger) ([]SeedCredential, error) {
	count, err := users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking user count: %w", err)
	}

	if count > 0 {
		logger.Info("users exist, skipping account seed", "users", count)
		return nil, nil
	}

	creds := make([]SeedCredential, 0, len(SeedAccounts))
	for _, acct := range SeedAccounts {
		passwordBytes := make([]byte, seedPasswordBytes)
		if _, err := rand.Read(passwordBytes); err != nil {
			return nil, fmt.Errorf("generating seed password: %w", err)
		}
		password := hex.EncodeToString(passwordBytes)

		hash, err := HashPasswordWithIterations(password, iterations)
		if err != nil {
			return nil, fmt.Errorf("hashing seed password: %w", err)
		}

		user := &User{Username: acct.Username, PasswordHash: hash, Role: acct.Role}
		if err := users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("creating seed account %s: %w", acct.Username, err)
		}

		creds = append(creds, SeedCredential{Username: acct.Username, Role: acct.Role, Password: password})
	}

	if out != nil {
		fmt.Fprintln(out, "Initial accounts (change these passwords immediately):")
		for _, c := range creds {
			fmt.Fprintf(out, "  %-8s %-6s %s\n", c.Username, c.Role, c.Password)
		}
	}

	logger.Warn("seed accounts created",
		"accounts", len(creds),
		"action_required", "change the generated passwords immediately",
	)

	return creds, nil
}
