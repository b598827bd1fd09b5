package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/collegeconnect/backend/internal/database"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

var (
	mongoURI string
	mongoDB  string

	db    *database.MongoDB
	users *repository.Users
)

var rootCmd = &cobra.Command{
	Use:   "ccadmin",
	Short: "CollegeConnect admin CLI - manage roles and bans",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()

		if mongoURI == "" {
			mongoURI = os.Getenv("MONGO_URI")
		}
		if mongoURI == "" {
			mongoURI = "mongodb://localhost:27017"
		}
		if mongoDB == "" {
			mongoDB = os.Getenv("MONGO_DB")
		}
		if mongoDB == "" {
			mongoDB = "collegeconnect"
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		var err error
		db, err = database.Connect(ctx, database.Config{URI: mongoURI, Name: mongoDB, RetryCount: 1})
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		users = repository.NewUsers(db)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			db.Close(ctx)
		}
	},
}

func setRole(ctx context.Context, email string, role models.Role) error {
	user, err := users.ByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("user not found: %s", email)
		}
		return err
	}
	if user.Role == role {
		fmt.Printf("%s already has role %s\n", email, role)
		return nil
	}
	if err := users.Update(ctx, user.ID, bson.M{"role": role}); err != nil {
		return err
	}
	fmt.Printf("%s is now a %s\n", email, role)
	return nil
}

func setBanned(ctx context.Context, email string, banned bool) error {
	user, err := users.ByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("user not found: %s", email)
		}
		return err
	}
	if err := users.Update(ctx, user.ID, bson.M{"is_banned": banned}); err != nil {
		return err
	}
	if banned {
		fmt.Printf("%s banned\n", email)
	} else {
		fmt.Printf("%s unbanned\n", email)
	}
	return nil
}

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant moderator privileges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd.Context(), args[0], models.RoleModerator)
	},
}

var demoteCmd = &cobra.Command{
	Use:   "demote <email>",
	Short: "Revoke moderator privileges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd.Context(), args[0], models.RoleUser)
	},
}

var banCmd = &cobra.Command{
	Use:   "ban <email>",
	Short: "Ban an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBanned(cmd.Context(), args[0], true)
	},
}

var unbanCmd = &cobra.Command{
	Use:   "unban <email>",
	Short: "Lift a ban",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBanned(cmd.Context(), args[0], false)
	},
}

var bannedCmd = &cobra.Command{
	Use:   "banned",
	Short: "List banned accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		banned, err := users.Banned(cmd.Context())
		if err != nil {
			return err
		}
		if len(banned) == 0 {
			fmt.Println("no banned accounts")
			return nil
		}
		for _, u := range banned {
			fmt.Printf("%s\t%s\t%s\n", u.Email, u.Name, u.College)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI (defaults to MONGO_URI env var)")
	rootCmd.PersistentFlags().StringVar(&mongoDB, "db", "", "Database name (defaults to MONGO_DB env var)")

	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(demoteCmd)
	rootCmd.AddCommand(banCmd)
	rootCmd.AddCommand(unbanCmd)
	rootCmd.AddCommand(bannedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
