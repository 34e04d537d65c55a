package handlers

import (
	"net/http"

	"jamwathq/internal/api"
	"jamwathq/internal/apperr"
	"jamwathq/internal/auth"
	"jamwathq/internal/models"
	"jamwathq/internal/services"

	"github.com/go-chi/chi/v5"
)

var ErrVisitorRequired = apperr.New(apperr.Unauthenticated, "Please log in to submit a review")

type ReviewsHandler struct {
	reviews  *services.ReviewService
	agencies *services.AgencyReviewService
	sessions *auth.SessionManager
}

func NewReviewsHandler(reviews *services.ReviewService, agencies *services.AgencyReviewService, sessions *auth.SessionManager) *ReviewsHandler {
	return &ReviewsHandler{reviews: reviews, agencies: agencies, sessions: sessions}
}

func (h *ReviewsHandler) List(r *http.Request) (*api.Response, error) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return nil, err
	}
	reviews, err := h.reviews.List(r.Context(), r.URL.Query().Get("state"), limit)
	if err != nil {
		return nil, err
	}
	return api.OK(map[string]any{"count": len(reviews), "reviews": reviews}), nil
}

func (h *ReviewsHandler) Stats(r *http.Request) (*api.Response, error) {
	stats, err := h.reviews.AllStatesStats(r.Context())
	if err != nil {
		return nil, err
	}
	return api.OK(map[string]any{"stats": stats}), nil
}

func (h *ReviewsHandler) StateStats(r *http.Request) (*api.Response, error) {
	stats, err := h.reviews.StateStats(r.Context(), chi.URLParam(r, "state"))
	if err != nil {
		return nil, err
	}
	return api.OK(map[string]any{"stats": stats}), nil
}

func (h *ReviewsHandler) Analytics(r *http.Request) (*api.Response, error) {
	analytics, err := h.reviews.Analytics(r.Context())
	if err != nil {
		return nil, err
	}
	return api.OK(map[string]any{"analytics": analytics}), nil
}

func (h *ReviewsHandler) Submit(r *http.Request) (*api.Response, error) {
	visitor, ok := h.sessions.GetVisitor(r)
	if !ok {
		return nil, ErrVisitorRequired
	}

	var in models.ReviewInput
	if err := api.DecodeJSON(r, &in); err != nil {
		return nil, err
	}
	review, err := h.reviews.Submit(r.Context(), visitor, in)
	if err != nil {
		return nil, err
	}
	return api.Created("Review submitted successfully!", map[string]any{"review": review}), nil
}

func (h *ReviewsHandler) SubmitAgency(r *http.Request) (*api.Response, error) {
	visitor, ok := h.sessions.GetVisitor(r)
	if !ok {
		return nil, ErrVisitorRequired
	}

	var in models.AgencyReviewInput
	if err := api.DecodeJSON(r, &in); err != nil {
		return nil, err
	}
	review, err := h.agencies.Submit(r.Context(), visitor, in, api.ClientIP(r))
	if err != nil {
		return nil, err
	}
	return api.Created("Review submitted successfully!", map[string]any{
		"review": map[string]any{
			"id":            review.ID,
			"agencyId":      review.AgencyID,
			"agencyName":    review.AgencyName,
			"overallRating": review.OverallRating,
			"createdAt":     review.CreatedAt,
		},
	}), nil
}

func (h *ReviewsHandler) ForAgency(r *http.Request) (*api.Response, error) {
	reviews, err := h.agencies.ForAgency(r.Context(), chi.URLParam(r, "agencyId"))
	if err != nil {
		return nil, err
	}

	public := make([]map[string]any, 0, len(reviews))
	for _, review := range reviews {
		public = append(public, map[string]any{
			"userFirstName":  review.UserFirstName,
			"overallRating":  review.OverallRating,
			"comments":       review.Comments,
			"createdAt":      review.CreatedAt,
			"usageFrequency": review.UsageFrequency,
		})
	}
	return api.OK(map[string]any{"count": len(public), "reviews": public}), nil
}

// ModerationHandler serves the admin review endpoints.
type ModerationHandler struct {
	reviews *services.ReviewService
}

func NewModerationHandler(reviews *services.ReviewService) *ModerationHandler {
	return &ModerationHandler{reviews: reviews}
}

func (h *ModerationHandler) Approve(r *http.Request) (*api.Response, error) {
	review, err := h.reviews.SetApproved(r.Context(), chi.URLParam(r, "id"), true)
	if err != nil {
		return nil, err
	}
	return &api.Response{Status: http.StatusOK, Message: "Review approved", Data: map[string]any{"review": review}}, nil
}

func (h *ModerationHandler) Reject(r *http.Request) (*api.Response, error) {
	review, err := h.reviews.SetApproved(r.Context(), chi.URLParam(r, "id"), false)
	if err != nil {
		return nil, err
	}
	return &api.Response{Status: http.StatusOK, Message: "Review rejected", Data: map[string]any{"review": review}}, nil
}

func (h *ModerationHandler) Delete(r *http.Request) (*api.Response, error) {
	if err := h.reviews.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		return nil, err
	}
	return &api.Response{Status: http.StatusOK, Message: "Review deleted"}, nil
}
