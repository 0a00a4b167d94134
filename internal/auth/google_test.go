package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/denuncias/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestGoogleProvider(t *testing.T, userInfo string, status int) *GoogleProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(userInfo))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewGoogleProvider(&config.GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "postmessage"})
	p.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	p.userInfoURL = srv.URL + "/userinfo"
	return p
}

func TestGoogleProvider_Exchange(t *testing.T) {
	p := newTestGoogleProvider(t, `{"id":"1","email":"ana@muni.com","verified_email":true,"name":"Ana"}`, http.StatusOK)

	identity, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "ana@muni.com", identity.Email)
	assert.Equal(t, "Ana", identity.Name)
	assert.True(t, identity.EmailVerified)
}

func TestGoogleProvider_ExchangeUserInfoFailure(t *testing.T) {
	p := newTestGoogleProvider(t, `{}`, http.StatusUnauthorized)

	_, err := p.Exchange(context.Background(), "code")
	assert.ErrorContains(t, err, "unexpected status code: 401")
}

func TestGoogleProvider_ExchangeMissingEmail(t *testing.T) {
	p := newTestGoogleProvider(t, `{"id":"1"}`, http.StatusOK)

	_, err := p.Exchange(context.Background(), "code")
	assert.ErrorContains(t, err, "no email")
}
