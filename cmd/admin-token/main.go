package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/config"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/storage"
	"github.com/Riya-Singh-Hash/CampusConnect/pkg/jwt"
)

func main() {
	// Flags for customization
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Path to a TOML config file")
	userID := flag.String("user", "", "ID of the user to issue the token for")
	email := flag.String("email", "", "Email of the user to issue the token for")
	promote := flag.Bool("promote", false, "Promote the user to super-admin before signing")
	expMins := flag.Int("exp", 60*24*7, "Token expiration in minutes (default: 7 days)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *userID == "" && *email == "" {
		fmt.Fprintln(os.Stderr, "Error: one of -user or -email is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	var user *model.User
	if *userID != "" {
		user, err = store.Users.GetByID(ctx, *userID)
	} else {
		user, err = store.Users.GetByEmail(ctx, model.NormalizeEmail(*email))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading user: %v\n", err)
		os.Exit(1)
	}
	if user == nil {
		fmt.Fprintln(os.Stderr, "Error: user not found")
		os.Exit(1)
	}

	// Authentication reloads the role from storage, so promotion has to be persisted
	if *promote && user.Role != model.UserRoleSuperAdmin {
		user.Role = model.UserRoleSuperAdmin
		user.IsActive = true
		user.UpdatedOn = time.Now()
		if err := store.Users.Save(ctx, user); err != nil {
			fmt.Fprintf(os.Stderr, "Error promoting user: %v\n", err)
			os.Exit(1)
		}
	}

	// Create JWT service with just the private key
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nStart the server once with SERVER_ENV=development to generate keys\n")
		os.Exit(1)
	}

	token, err := jwtService.IssueAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   *expMins * 60,
			"user_id":      user.ID,
			"email":        user.Email,
			"role":         user.Role,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	expTime := time.Now().Add(time.Duration(*expMins) * time.Minute)
	fmt.Println("Token Generated")
	fmt.Println("===============")
	fmt.Printf("User ID:  %s\n", user.ID)
	fmt.Printf("Email:    %s\n", user.Email)
	fmt.Printf("Role:     %s\n", user.Role)
	fmt.Printf("Expires:  %s\n", expTime.Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:%s/v1/profile\n", token[:50]+"...", cfg.Server.Port)
}
