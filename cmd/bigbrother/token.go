package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/bigbrother/internal/app"
	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/config"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	memstore "github.com/MrSnakeDoc/bigbrother/internal/store/memory"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Token diagnostics",
}

var tokenValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Verify an access token with the configured secret",
	Long: `Verifies signature, issuer, audience, expiry and kind of an access
token and prints its claims. Refresh tokens cannot be checked offline
because their validity depends on the server's active set.`,
	RunE: runTokenValidate,
}

var tokenFlag string

func init() {
	tokenValidateCmd.Flags().StringVar(&tokenFlag, "token", "", "access token to verify")
	_ = tokenValidateCmd.MarkFlagRequired("token")
	tokenCmd.AddCommand(tokenValidateCmd)
}

type tokenReport struct {
	Valid     bool      `json:"valid"`
	Subject   string    `json:"subject,omitempty"`
	Username  string    `json:"username,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
	Error     string    `json:"error,omitempty"`
}

func runTokenValidate(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	principal := auth.NewPrincipal(cfg.AdminUsername, cfg.AdminPasswordHash)
	svc, err := auth.NewService(app.AuthOptions(cfg), principal, memstore.NewRefreshStore(), logger.NewNop())
	if err != nil {
		return err
	}

	report := tokenReport{}
	claims, verr := svc.Verify(context.Background(), tokenFlag, auth.KindAccess)
	if verr == nil {
		report.Valid = true
		report.Subject = claims.UserID
		report.Username = claims.Username
		report.Role = claims.Role
		if claims.ExpiresAt != nil {
			report.ExpiresAt = claims.ExpiresAt.Time.UTC()
		}
	} else {
		report.Error = verr.Error()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if verr != nil {
		return errors.New("token is not valid")
	}
	return nil
}
