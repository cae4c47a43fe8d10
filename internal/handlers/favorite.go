package handlers

import (
	"net/http"

	"github.com/nkiryanov/castbook/internal/handlers/render"
	"github.com/nkiryanov/castbook/internal/handlers/userctx"
	"github.com/nkiryanov/castbook/internal/logger"
	"github.com/nkiryanov/castbook/internal/service/favorite"
)

func handleListFavorites(fs favoriteService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := userctx.FromContext(r.Context())
		limit, cursor := pageParams(r, favorite.MaxLimit)

		page, err := fs.List(r.Context(), principal.UserID, limit, cursor)
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		render.JSON(w, newPageResponse(page, newFavoriteResponse))
	})
}

func handleAddFavorite(fs favoriteService, l logger.Logger) http.Handler {
	type response struct {
		ID     string `json:"id"`
		CastID string `json:"cast_id"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := userctx.FromContext(r.Context())
		castID, err := castIDFromPath(r, "castID")
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		f, err := fs.Add(r.Context(), principal.UserID, castID)
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		render.JSON(w, response{ID: f.ID.String(), CastID: f.CastID.String()})
	})
}

func handleRemoveFavorite(fs favoriteService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := userctx.FromContext(r.Context())
		castID, err := castIDFromPath(r, "castID")
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		if err := fs.Remove(r.Context(), principal.UserID, castID); err != nil {
			writeError(w, r, l, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
