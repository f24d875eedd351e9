package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dianehq/diane/internal/pkg/jwt"
	"github.com/dianehq/diane/internal/pkg/password"
)

func newTokenCmd(configPath *string) *cobra.Command {
	var hashPassword string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "issue an api bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hashPassword != "" {
				hash, err := password.Hash(hashPassword)
				if err != nil {
					return err
				}
				fmt.Println(hash)
				return nil
			}
			app, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()
			if app.cfg.Server.JWTSecret == "" {
				return fmt.Errorf("server.jwt_secret is required")
			}
			ttl := time.Duration(app.cfg.Server.JWTTTLHours) * time.Hour
			token, err := jwt.GenerateToken("owner", []byte(app.cfg.Server.JWTSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&hashPassword, "hash-password", "", "print the bcrypt hash for a password and exit")
	return cmd
}
