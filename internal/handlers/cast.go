package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/castbook/internal/apperrors"
	"github.com/nkiryanov/castbook/internal/handlers/render"
	"github.com/nkiryanov/castbook/internal/handlers/userctx"
	"github.com/nkiryanov/castbook/internal/logger"
	"github.com/nkiryanov/castbook/internal/models"
	"github.com/nkiryanov/castbook/internal/pagination"
	"github.com/nkiryanov/castbook/internal/service/cast"
	"github.com/nkiryanov/castbook/internal/service/review"
)

// Parse cast id from path; unparsable id is reported as absent cast
func castIDFromPath(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperrors.ErrCastNotFound
	}
	return id, nil
}

// Read 'limit' and 'cursor' query params
func pageParams(r *http.Request, maxLimit int) (int, string) {
	q := r.URL.Query()
	return pagination.NormalizeLimit(q.Get("limit"), maxLimit, pagination.DefaultLimit), q.Get("cursor")
}

func handleListCasts(cs castService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, cursor := pageParams(r, cast.MaxLimit)

		page, err := cs.ListCasts(r.Context(), limit, cursor)
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		render.JSON(w, newPageResponse(page, newCastResponse))
	})
}

func handleGetCast(cs castService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		castID, err := castIDFromPath(r, "id")
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		c, err := cs.GetCast(r.Context(), castID)
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		render.JSON(w, newCastResponse(c))
	})
}

func handleListReviews(rs reviewService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		castID, err := castIDFromPath(r, "id")
		if err != nil {
			writeError(w, r, l, err)
			return
		}
		limit, cursor := pageParams(r, review.MaxLimit)

		page, err := rs.List(r.Context(), castID, limit, cursor)
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		render.JSON(w, newPageResponse(page, newReviewResponse))
	})
}

func handleCreateReview(rs reviewService, l logger.Logger) http.Handler {
	type request struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := userctx.FromContext(r.Context())
		if principal.Role != models.RoleGuest {
			render.ServiceError(w, "Only guests can review casts", http.StatusForbidden)
			return
		}

		castID, err := castIDFromPath(r, "id")
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		created, err := rs.Create(r.Context(), review.CreateParams{
			AuthorID: principal.UserID,
			CastID:   castID,
			Rating:   data.Rating,
			Comment:  data.Comment,
		})
		if err != nil {
			writeError(w, r, l, err)
			return
		}

		render.JSONWithStatus(w, newReviewResponse(created), http.StatusCreated)
	})
}
