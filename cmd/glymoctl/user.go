package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/foulezombie94/Glymo-ai/internal/storage"
	"github.com/foulezombie94/Glymo-ai/internal/storage/backend"
)

func newCreateUserCmd() *cobra.Command {
	var username, email string
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user with a bcrypt-hashed password",
		Long:  "Creates an account. Missing values are prompted for on stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			if username == "" {
				username = prompt(in, out, "Username: ")
			}
			if email == "" {
				email = prompt(in, out, "Email: ")
			}
			password := prompt(in, out, "Password: ")

			u, err := newUser(username, email, password)
			if err != nil {
				return err
			}

			store, err := backend.Open(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			created, err := store.CreateUser(cmd.Context(), u)
			if errors.Is(err, storage.ErrAlreadyExists) {
				return fmt.Errorf("username %q is taken", username)
			}
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Fprintf(out, "\nUser created successfully!\n")
			fmt.Fprintf(out, "  ID:         %s\n", created.ID)
			fmt.Fprintf(out, "  Username:   %s\n", created.Username)
			fmt.Fprintf(out, "  Auth Token: %s\n", created.AuthToken)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email")
	return cmd
}

// newUser validates the input and hashes the password.
func newUser(username, email, password string) (storage.User, error) {
	if username == "" {
		return storage.User{}, errors.New("username is required")
	}
	if len(password) < 8 {
		return storage.User{}, errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return storage.User{}, fmt.Errorf("hash password: %w", err)
	}
	return storage.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		AuthToken:    uuid.NewString(),
	}, nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
