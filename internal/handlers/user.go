package handlers

import (
	"net/http"

	"github.com/nkiryanov/castbook/internal/handlers/render"
	"github.com/nkiryanov/castbook/internal/handlers/userctx"
	"github.com/nkiryanov/castbook/internal/logger"
)

func handleUserMe(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := userctx.FromContext(r.Context())

		profile, err := as.GetProfile(r.Context(), principal.UserID)
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		render.JSON(w, newProfileResponse(profile))
	})
}
