package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/auth"
)

// TokenResult is a freshly signed viewpoint token.
type TokenResult struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

func (r TokenResult) String() string {
	return r.Token
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var userID, email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for a user",
		Long: `Sign a JWT with JWT_SECRET that the server accepts as the given user's
identity. Lifetime is TOKEN_DURATION.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("user", userID); err != nil {
				return err
			}
			cfg := rootOpts.config()
			if cfg.JWTSecret == "" {
				return NewExitError(ExitCommandError, "JWT_SECRET is not set")
			}

			token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration).Generate(userID, email)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to sign token", err)
			}
			return rootOpts.formatter(cmd).Success(TokenResult{UserID: userID, Token: token})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID (required)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")

	return cmd
}
