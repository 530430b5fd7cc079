package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mandalnilabja/chatgate/internal/storage"
)

// ensureAdminUser creates the first account when the user table is
// empty. Password comes from CHATGATE_ADMIN_PASSWORD if set, otherwise
// it is read interactively.
func ensureAdminUser(store storage.Storage) error {
	count, err := store.CountUsers()
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("CHATGATE_ADMIN_PASSWORD")
	if password == "" {
		password, err = promptAdminPassword()
		if err != nil {
			return err
		}
	} else if !isValidPassword(password) {
		return fmt.Errorf("CHATGATE_ADMIN_PASSWORD must be alphanumeric with at least 8 characters")
	}

	hash, err := storage.HashPassword(password, storage.DefaultArgon2Params())
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &storage.User{
		Username:     "admin",
		Role:         "admin",
		PasswordHash: hash,
	}
	if err := store.CreateUser(admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Admin account 'admin' created.")
	fmt.Println()
	return nil
}

func promptAdminPassword() (string, error) {
	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║              FIRST-TIME SETUP REQUIRED                     ║")
	fmt.Println("╚════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Println("No accounts exist yet. Please set a password for 'admin'.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("Enter admin password (alphanumeric, min 8 chars): ")
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(password)

		if !isValidPassword(password) {
			fmt.Println("❌ Password must be alphanumeric with at least 8 characters.")
			fmt.Println()
			continue
		}

		fmt.Print("Confirm password: ")
		confirm, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read confirmation: %w", err)
		}
		confirm = strings.TrimSpace(confirm)

		if password != confirm {
			fmt.Println("❌ Passwords do not match. Please try again.")
			fmt.Println()
			continue
		}

		return password, nil
	}
}

func isValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	for _, c := range password {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
