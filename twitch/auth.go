package twitchirc

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/twitch"
)

func (irc *IRC) parseAuthCode(w http.ResponseWriter, req *http.Request) {
	err := req.ParseForm()
	if err != nil {
		irc.logger.Error("could not parse oauth redirect query", "error", err.Error())
		http.Error(w, "could not parse query", http.StatusBadRequest)
		return
	}
	irc.authCode = req.FormValue("code")
}

// AuthTwitch obtains an oauth2 token for the IRC connection. A token
// in TWITCH_OAUTH_TOKEN is used directly, which is the normal path for
// a deployed bot. Without one it falls back to the interactive consent
// flow and waits for the redirect on localhost:3000.
func (irc *IRC) AuthTwitch(ctx context.Context) error {
	if tok := os.Getenv("TWITCH_OAUTH_TOKEN"); tok != "" {
		irc.tok = &oauth2.Token{AccessToken: tok}
		irc.tokenRefreshTime = time.Now()
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/redirect", irc.parseAuthCode)
	go func() {
		err := http.ListenAndServe("localhost:3000", mux)
		if err != nil {
			irc.logger.Error("oauth redirect listener failed", "error", err.Error())
		}
	}()

	conf := &oauth2.Config{
		ClientID:     os.Getenv("TWITCH_ID"),
		ClientSecret: os.Getenv("TWITCH_SECRET"),
		Scopes:       []string{"chat:read", "chat:edit"},
		RedirectURL:  "http://localhost:3000/oauth/redirect",
		Endpoint:     twitch.Endpoint,
	}
	// Redirect user to consent page to ask for permission
	// for the scopes specified above.
	url := conf.AuthCodeURL("state", oauth2.AccessTypeOffline)
	irc.logger.Info("visit the URL for the auth dialog", "url", url)
	for irc.authCode == "" {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}

	irc.logger.Info("auth code received")
	var err error
	irc.tok, err = conf.Exchange(ctx, irc.authCode)
	if err != nil {
		return errors.Wrap(err, "failed to get token with auth code")
	}
	irc.tokenRefreshTime = time.Now()
	irc.logger.Info("token received")
	return nil
}
