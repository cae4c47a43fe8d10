package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/castbook/internal/handlers/render"
	"github.com/nkiryanov/castbook/internal/logger"
	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/service/auth"
)

func handleRegister(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email       string          `json:"email"`
		PhoneNumber string          `json:"phone_number"`
		Password    string          `json:"password"`
		DisplayName string          `json:"display_name"`
		Role        string          `json:"role" validate:"required,oneof=guest cast"`
		Bio         string          `json:"bio"`
		HourlyRate  decimal.Decimal `json:"hourly_rate" validate:"-"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		role, _ := models.ParseRole(data.Role)
		pair, profile, err := as.Register(r.Context(), auth.RegisterParams{
			Email:       data.Email,
			PhoneNumber: data.PhoneNumber,
			Password:    data.Password,
			DisplayName: data.DisplayName,
			Role:        role,
			Bio:         data.Bio,
			HourlyRate:  data.HourlyRate,
		})
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		setTokens(w, pair)
		render.JSONWithStatus(w, authResponse{
			tokensResponse: newTokensResponse(pair),
			User:           newProfileResponse(profile),
		}, http.StatusCreated)
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
		Role       string `json:"role" validate:"omitempty,oneof=guest cast"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		var expectedRole *models.Role
		if role, ok := models.ParseRole(data.Role); ok {
			expectedRole = &role
		}

		pair, profile, err := as.Login(r.Context(), data.Identifier, data.Password, expectedRole)
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		setTokens(w, pair)
		render.JSON(w, authResponse{
			tokensResponse: newTokensResponse(pair),
			User:           newProfileResponse(profile),
		})
	})
}

func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := readRefreshToken(r)
		if err != nil {
			render.DecodeError(w, err)
			return
		}

		pair, err := as.Refresh(r.Context(), refresh)
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		setTokens(w, pair)
		render.JSON(w, newTokensResponse(pair))
	})
}

func handleLogout(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := readRefreshToken(r)
		if err != nil {
			render.DecodeError(w, err)
			return
		}

		if err := as.Logout(r.Context(), refresh); err != nil {
			writeError(w, r, l, err)
			return
		}

		clearRefreshCookie(w)
		w.WriteHeader(http.StatusNoContent)
	})
}
