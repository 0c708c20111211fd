// Package cli implements the command line subcommands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/auth"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/config"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/books"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/copies"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/users"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
)

// SeedCommand populates an empty database with an admin account and a small
// demo catalog, so the API is usable right after first start.
type SeedCommand struct {
	DatabasePath  string
	AdminPassword string
	SkipDemoData  bool
}

func NewSeedCommand() *SeedCommand {
	return &SeedCommand{}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.AdminPassword, "admin-password", "", "Password for the admin account (required)")
	fs.BoolVar(&cmd.SkipDemoData, "skip-demo", false, "Only create the admin account, no demo catalog")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Seed the database with an admin account and a demo catalog.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed -admin-password changeme123\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s seed -db ./library.db -admin-password changeme123 -skip-demo\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.AdminPassword == "" {
		fs.Usage()
		return fmt.Errorf("admin-password is required")
	}

	return nil
}

func (cmd *SeedCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	cfg := config.NewConfig()

	usersRepo := users.NewRepository(db.DB)
	authService := auth.NewService(usersRepo, cfg.Auth)

	admin, err := authService.CreateUser(ctx, auth.NewUserRequest{
		Name:     "Administrator",
		Username: "admin",
		Email:    "admin@library.local",
		Password: cmd.AdminPassword,
		Role:     entities.UserRoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	fmt.Printf("Created admin account (id=%d)\n", admin.ID)

	if cmd.SkipDemoData {
		return nil
	}

	if _, err := authService.CreateUser(ctx, auth.NewUserRequest{
		Name:     "Demo Member",
		Username: "demo",
		Email:    "demo@library.local",
		Password: "demo-password",
		Age:      21,
		College:  "Engineering",
	}); err != nil {
		return fmt.Errorf("failed to create demo member: %w", err)
	}
	fmt.Println("Created demo member account")

	booksRepo := books.NewRepository(db.DB)
	copiesRepo := copies.NewRepository(db.DB)

	published := func(year int) *time.Time {
		t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return &t
	}

	catalog := []entities.Book{
		{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Fiction", PublicationDate: published(1925)},
		{Title: "To Kill a Mockingbird", Author: "Harper Lee", Genre: "Fiction", PublicationDate: published(1960)},
		{Title: "The Pragmatic Programmer", Author: "Andrew Hunt", Genre: "Technology", PublicationDate: published(1999)},
	}

	for i := range catalog {
		book := &catalog[i]
		if err := booksRepo.CreateBook(ctx, book); err != nil {
			return fmt.Errorf("failed to create book %q: %w", book.Title, err)
		}
		batch := []entities.Copy{
			{BookID: book.ID, Label: fmt.Sprintf("%d-1", book.ID), Available: true},
			{BookID: book.ID, Label: fmt.Sprintf("%d-2", book.ID), Available: true},
		}
		if err := copiesRepo.CreateCopies(ctx, batch); err != nil {
			return fmt.Errorf("failed to create copies for %q: %w", book.Title, err)
		}
		fmt.Printf("Created book %q with %d copies\n", book.Title, len(batch))
	}

	return nil
}
