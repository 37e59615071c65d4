// Package secrets pulls deployment credentials from 1password and
// exports them into the environment the rest of the bot reads.
package secrets

import (
	"context"
	"fmt"
	"os"

	"github.com/1password/onepassword-sdk-go"
)

// references maps environment variable names to their 1password items.
var references = map[string]string{
	"DISCORD_SECRET":     "op://margobot/DISCORD_SECRET/credential",
	"TWITCH_ID":          "op://margobot/TWITCH_ID/credential",
	"TWITCH_SECRET":      "op://margobot/TWITCH_SECRET/credential",
	"TWITCH_OAUTH_TOKEN": "op://margobot/TWITCH_OAUTH_TOKEN/credential",
	"POSTGRES_URL":       "op://margobot/POSTGRES_URL/credential",
}

// Init resolves secrets from 1password into the environment. Without
// an OP_SA service account token it does nothing, which is the local
// dev path where the variables are set by hand.
func Init(ctx context.Context) error {
	token := os.Getenv("OP_SA")
	if token == "" {
		return nil
	}

	client, err := onepassword.NewClient(ctx,
		onepassword.WithServiceAccountToken(token),
		onepassword.WithIntegrationInfo("margobot", "v1.0.0"),
	)
	if err != nil {
		return fmt.Errorf("error creating 1password client: %v", err)
	}

	for env, ref := range references {
		// Hand-set variables win over the vault.
		if os.Getenv(env) != "" {
			continue
		}
		value, err := client.Secrets.Resolve(ctx, ref)
		if err != nil {
			return fmt.Errorf("error resolving secret %s: %v", env, err)
		}
		if err := os.Setenv(env, value); err != nil {
			return fmt.Errorf("error setting %s: %v", env, err)
		}
	}
	return nil
}
