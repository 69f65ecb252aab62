package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/sihmvp/dropout-monitor/internal/bootstrap"
	"github.com/sihmvp/dropout-monitor/internal/config"
	"github.com/sihmvp/dropout-monitor/internal/logger"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/service"
)

func main() {
	replace := flag.Bool("replace", false, "replace an existing account, e.g. one carrying a legacy password hash")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Open Storage ──────────────────────────────────────────────────
	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer stores.Close()

	services, err := bootstrap.NewServices(ctx, cfg, log, stores)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Close()

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	fmt.Print("Enter username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	fmt.Print("Enter password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if password == "" {
		fmt.Println("Error: Password is required")
		return
	}

	fmt.Print("Enter role (admin, mentor, student) [admin]: ")
	roleStr, _ := reader.ReadString('\n')
	role := model.Role(strings.ToLower(strings.TrimSpace(roleStr)))
	if role == "" {
		role = model.RoleAdmin
	}
	if !role.Valid() {
		fmt.Println("Error: Role must be admin, mentor or student")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	req := model.RegisterRequest{Username: username, Password: password, Role: role}
	if *replace {
		err := services.User.Delete(ctx, "cli", username)
		if err != nil && !errors.Is(err, service.ErrUserNotFound) {
			log.Fatal().Err(err).Msg("Failed to remove existing user")
		}
	}
	if _, err := services.User.Register(ctx, "cli", req); err != nil {
		if errors.Is(err, service.ErrDuplicateUser) {
			fmt.Printf("Error: User '%s' already exists\n", username)
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! User '%s' created with role %s\n", username, role)
}
