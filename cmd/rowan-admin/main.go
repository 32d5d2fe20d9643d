// ABOUTME: Admin CLI for rowan user account management
// ABOUTME: Operates directly on the SQLite store; no running gateway required

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/rowanlabs/rowan/internal/auth"
	"github.com/rowanlabs/rowan/internal/config"
	"github.com/rowanlabs/rowan/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "create-user":
		err = cmdCreateUser(args)
	case "list-users":
		err = cmdListUsers()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: rowan-admin <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  create-user [username]  Create a user account interactively")
	fmt.Println("  list-users              List all user accounts")
	fmt.Println()
	fmt.Println("The config file is located via ROWAN_CONFIG or ~/.config/rowan/gateway.yaml")
}

func getConfigPath() string {
	if envPath := os.Getenv("ROWAN_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml"
		}
		configDir = homeDir + "/.config"
	}
	return configDir + "/rowan/gateway.yaml"
}

func openStore() (*store.SQLiteStore, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return store.NewSQLiteStore(cfg.Database.Path)
}

func cmdCreateUser(args []string) error {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	cyan.Println("rowan user setup")
	fmt.Println()

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if _, err := s.GetUserByUsername(ctx, username); err == nil {
		return fmt.Errorf("user %q already exists", username)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking username: %w", err)
	}

	password, err := auth.PromptPassword("Password: ")
	if err != nil {
		return err
	}
	if err := auth.CheckPasswordPolicy(password); err != nil {
		return err
	}

	confirm, err := auth.PromptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.CreateUser(ctx, username, hash)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	fmt.Println()
	green.Printf("  ✓ Created user %s (id %d)\n", user.Username, user.ID)
	fmt.Println()
	fmt.Println("Log in with:")
	fmt.Printf("  curl -X POST http://localhost:3000/auth/login -d '{\"username\":\"%s\",\"password\":\"...\"}'\n", username)

	return nil
}

func cmdListUsers() error {
	ctx := context.Background()

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	users, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users. Create one with: rowan-admin create-user")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
