package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"jamwathq/internal/apperr"
	"jamwathq/internal/database"
	"jamwathq/internal/models"

	"github.com/google/uuid"
)

const (
	minCommentLength   = 20
	agencyReviewsShown = 50
)

var whitespace = regexp.MustCompile(`\s+`)

type AgencyReviewService struct {
	db  *database.DB
	now func() time.Time
}

func NewAgencyReviewService(db *database.DB, now func() time.Time) *AgencyReviewService {
	if now == nil {
		now = time.Now
	}
	return &AgencyReviewService{db: db, now: now}
}

func ratingProblem(value int, field string) string {
	if value < 1 || value > 5 {
		return field + " must be an integer between 1 and 5."
	}
	return ""
}

func validateAgencyReview(in *models.AgencyReviewInput) error {
	in.AgencyID = strings.ToLower(strings.TrimSpace(in.AgencyID))
	in.AgencyName = strings.TrimSpace(in.AgencyName)
	in.Comments = whitespace.ReplaceAllString(strings.TrimSpace(in.Comments), " ")

	var problems []string
	if !in.TOSAccepted {
		problems = append(problems, "Terms of Service must be accepted before submitting a review.")
	}
	if in.AgencyID == "" {
		problems = append(problems, "Agency identifier is required.")
	}
	if in.AgencyName == "" {
		problems = append(problems, "Agency name is required.")
	}
	for _, p := range []string{
		ratingProblem(in.ApplicationProcess, "Application process rating"),
		ratingProblem(in.CustomerService, "Customer service rating"),
		ratingProblem(in.Communication, "Communication rating"),
		ratingProblem(in.SupportServices, "Support services rating"),
		ratingProblem(in.OverallExperience, "Overall experience rating"),
	} {
		if p != "" {
			problems = append(problems, p)
		}
	}
	if in.OverallRating != 0 && (in.OverallRating < 1 || in.OverallRating > 5) {
		problems = append(problems, "Overall rating must be between 1 and 5.")
	}
	if in.UsageFrequency < 1 || in.UsageFrequency > 5 {
		problems = append(problems, "Usage frequency must be between 1 and 5.")
	}
	if len([]rune(in.Comments)) < minCommentLength {
		problems = append(problems, "Comments must be at least 20 characters.")
	}

	if len(problems) > 0 {
		return apperr.Invalid("Invalid review submission.", problems...)
	}
	return nil
}

// Submit stores an agency review. A missing overall rating is the mean of
// the five category ratings, rounded to one decimal.
func (s *AgencyReviewService) Submit(ctx context.Context, visitor models.Visitor, in models.AgencyReviewInput, ip string) (*models.AgencyReview, error) {
	if err := validateAgencyReview(&in); err != nil {
		return nil, err
	}

	overall := in.OverallRating
	if overall == 0 {
		overall = float64(in.ApplicationProcess+in.CustomerService+in.Communication+in.SupportServices+in.OverallExperience) / 5
	}

	now := s.now().UTC()
	review := &models.AgencyReview{
		ID:                 uuid.NewString(),
		UserID:             visitor.ID,
		UserFirstName:      visitor.FirstName,
		AgencyID:           in.AgencyID,
		AgencyName:         in.AgencyName,
		ApplicationProcess: in.ApplicationProcess,
		CustomerService:    in.CustomerService,
		Communication:      in.Communication,
		SupportServices:    in.SupportServices,
		OverallExperience:  in.OverallExperience,
		OverallRating:      round(overall, 1),
		UsageFrequency:     in.UsageFrequency,
		Comments:           in.Comments,
		TOSAcceptedAt:      now,
		IPAddress:          ip,
		CreatedAt:          now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agency_reviews (id, user_id, user_first_name, agency_id, agency_name, application_process,
			customer_service, communication, support_services, overall_experience, overall_rating,
			usage_frequency, comments, tos_accepted_at, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.UserID, review.UserFirstName, review.AgencyID, review.AgencyName,
		review.ApplicationProcess, review.CustomerService, review.Communication, review.SupportServices,
		review.OverallExperience, review.OverallRating, review.UsageFrequency, review.Comments,
		review.TOSAcceptedAt, review.IPAddress, review.CreatedAt,
	)
	if err != nil {
		return nil, apperr.Store("insert agency review", err)
	}
	return review, nil
}

// ForAgency returns the latest reviews for an agency, newest first.
func (s *AgencyReviewService) ForAgency(ctx context.Context, agencyID string) ([]models.AgencyReview, error) {
	agencyID = strings.ToLower(strings.TrimSpace(agencyID))
	if agencyID == "" {
		return nil, apperr.Invalid("Agency identifier is required.")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, user_first_name, agency_id, agency_name, application_process, customer_service,
			communication, support_services, overall_experience, overall_rating, usage_frequency, comments,
			tos_accepted_at, COALESCE(ip_address, ''), created_at
		FROM agency_reviews
		WHERE agency_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, agencyID, agencyReviewsShown)
	if err != nil {
		return nil, apperr.Store("list agency reviews", err)
	}
	defer rows.Close()

	reviews := []models.AgencyReview{}
	for rows.Next() {
		var r models.AgencyReview
		if err := rows.Scan(&r.ID, &r.UserID, &r.UserFirstName, &r.AgencyID, &r.AgencyName, &r.ApplicationProcess,
			&r.CustomerService, &r.Communication, &r.SupportServices, &r.OverallExperience, &r.OverallRating,
			&r.UsageFrequency, &r.Comments, &r.TOSAcceptedAt, &r.IPAddress, &r.CreatedAt); err != nil {
			return nil, apperr.Store("scan agency review", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list agency reviews", err)
	}
	return reviews, nil
}
