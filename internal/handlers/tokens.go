package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/nkiryanov/castbook/internal/models"
)

const (
	refreshCookieName = "refreshtoken"
	accessHeaderName  = "Authorization"
	accessAuthScheme  = "Bearer"
)

// Set access token to header and refresh token to HttpOnly cookie
func setTokens(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(accessHeaderName, accessAuthScheme+" "+pair.Access.Value)

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.Refresh.Value,
		Path:     "/",
		Expires:  pair.Refresh.ExpiresAt,
		MaxAge:   int(time.Until(pair.Refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Read refresh token from JSON body {"refresh_token": "..."} or from cookie
// Body wins when both present; empty string if none
func readRefreshToken(r *http.Request) (string, error) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}

	err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if body.RefreshToken != "" {
		return body.RefreshToken, nil
	}

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return "", nil
	}
	return cookie.Value, nil
}
