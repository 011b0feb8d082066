package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinemaops/internal/config"
)

func newProvider(t *testing.T, email string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good" || r.PostForm.Get("client_id") != "cid" ||
			r.PostForm.Get("grant_type") != "authorization_code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":"idt"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"sub":"1","email":"` + email + `","name":"Lan"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func googleFor(srv *httptest.Server) *Google {
	return NewGoogle(config.GoogleConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/cb",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
	})
}

func TestExchangeAndProfile(t *testing.T) {
	srv := newProvider(t, "lan@example.com")
	g := googleFor(srv)

	tok, err := g.Exchange(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)

	js := TokenJSON(tok)
	assert.Equal(t, "idt", js["id_token"])
	assert.Equal(t, "Bearer", js["token_type"])

	p, err := g.Profile(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "lan@example.com", p.Email)
	assert.Equal(t, "Lan", p.Name)
}

func TestExchangeRejected(t *testing.T) {
	srv := newProvider(t, "lan@example.com")
	_, err := googleFor(srv).Exchange(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrExchange)
}

func TestProfileWithoutEmail(t *testing.T) {
	srv := newProvider(t, "")
	g := googleFor(srv)
	tok, err := g.Exchange(context.Background(), "good")
	require.NoError(t, err)
	_, err = g.Profile(context.Background(), tok)
	assert.ErrorIs(t, err, ErrNoEmail)
}
