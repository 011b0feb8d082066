// Command oauth-exchange trades a Google authorization code for tokens and
// prints them as JSON.  It reads the same GOOGLE_* variables as the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/cinemaops/internal/config"
	"github.com/iliyamo/cinemaops/internal/oauth"
)

func main() {
	code := flag.String("code", "", "authorization code returned to the redirect URL")
	flag.Parse()

	logger := log.New("oauth-exchange")
	if *code == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Fatalf("load .env: %v", err)
	}
	gc := config.GoogleConfig{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		TokenURL:     os.Getenv("GOOGLE_TOKEN_URL"),
	}
	if !gc.Enabled() {
		logger.Fatal("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	tok, err := oauth.NewGoogle(gc).Exchange(ctx, *code)
	if err != nil {
		logger.Fatal(err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(oauth.TokenJSON(tok)); err != nil {
		logger.Fatal(err)
	}
}
