package services

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"jamwathq/internal/apperr"
	"jamwathq/internal/database"
	"jamwathq/internal/models"

	"github.com/google/uuid"
)

var ErrReviewNotFound = apperr.New(apperr.NotFound, "Review not found")

const (
	maxExperienceLength = 2000
	defaultReviewLimit  = 50
	maxReviewLimit      = 200
)

type ReviewService struct {
	db  *database.DB
	now func() time.Time
}

func NewReviewService(db *database.DB, now func() time.Time) *ReviewService {
	if now == nil {
		now = time.Now
	}
	return &ReviewService{db: db, now: now}
}

func validateReview(in *models.ReviewInput) error {
	in.State = strings.TrimSpace(in.State)
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.Employer = strings.TrimSpace(in.Employer)
	in.City = strings.TrimSpace(in.City)
	in.Experience = strings.TrimSpace(in.Experience)
	if in.TimesUsed == 0 {
		in.TimesUsed = 1
	}
	if in.UserGender == "" {
		in.UserGender = "unknown"
	}

	var problems []string
	if !in.TOSAccepted {
		problems = append(problems, "Terms of Service must be accepted before submitting a review.")
	}
	if in.State == "" {
		problems = append(problems, "State is required.")
	}
	if in.JobTitle == "" {
		problems = append(problems, "Job title is required.")
	}
	if in.Wages < 0 {
		problems = append(problems, "Wages cannot be negative.")
	}
	if in.HoursPerWeek < 1 || in.HoursPerWeek > 80 {
		problems = append(problems, "Hours per week must be between 1 and 80.")
	}
	if in.Rating < 1 || in.Rating > 5 {
		problems = append(problems, "Rating must be an integer between 1 and 5.")
	}
	if in.Experience == "" {
		problems = append(problems, "Experience is required.")
	} else if len([]rune(in.Experience)) > maxExperienceLength {
		problems = append(problems, "Experience must be at most 2000 characters.")
	}
	if in.TimesUsed < 1 || in.TimesUsed > 10 {
		problems = append(problems, "Times used must be between 1 and 10.")
	}
	switch in.UserGender {
	case "male", "female", "other", "unknown":
	default:
		problems = append(problems, "Gender must be male, female, other or unknown.")
	}

	if len(problems) > 0 {
		return apperr.Invalid("Invalid review submission.", problems...)
	}
	return nil
}

// Submit stores a review written by visitor. New reviews are approved.
func (s *ReviewService) Submit(ctx context.Context, visitor models.Visitor, in models.ReviewInput) (*models.Review, error) {
	if err := validateReview(&in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	review := &models.Review{
		ID:            uuid.NewString(),
		UserID:        visitor.ID,
		UserFirstName: visitor.FirstName,
		UserGender:    in.UserGender,
		State:         in.State,
		JobTitle:      in.JobTitle,
		Employer:      in.Employer,
		City:          in.City,
		Wages:         in.Wages,
		HoursPerWeek:  in.HoursPerWeek,
		Rating:        in.Rating,
		Experience:    in.Experience,
		TimesUsed:     in.TimesUsed,
		TOSAccepted:   true,
		TOSAcceptedAt: now,
		IsApproved:    true,
		CreatedAt:     now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, user_first_name, user_gender, state, job_title, employer, city,
			wages, hours_per_week, rating, experience, times_used, tos_accepted, tos_accepted_at, is_approved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.UserID, review.UserFirstName, review.UserGender, review.State, review.JobTitle,
		review.Employer, review.City, review.Wages, review.HoursPerWeek, review.Rating, review.Experience,
		review.TimesUsed, review.TOSAccepted, review.TOSAcceptedAt, review.IsApproved, review.CreatedAt,
	)
	if err != nil {
		return nil, apperr.Store("insert review", err)
	}
	return review, nil
}

const reviewColumns = `id, user_id, user_first_name, user_gender, state, job_title, employer, city, wages,
	hours_per_week, rating, experience, times_used, tos_accepted, tos_accepted_at, is_approved, created_at`

func scanReview(row interface{ Scan(...any) error }) (*models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.UserID, &r.UserFirstName, &r.UserGender, &r.State, &r.JobTitle, &r.Employer,
		&r.City, &r.Wages, &r.HoursPerWeek, &r.Rating, &r.Experience, &r.TimesUsed, &r.TOSAccepted,
		&r.TOSAcceptedAt, &r.IsApproved, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns approved reviews, newest first. An empty state lists all.
func (s *ReviewService) List(ctx context.Context, state string, limit int) ([]models.Review, error) {
	if limit <= 0 {
		limit = defaultReviewLimit
	}
	if limit > maxReviewLimit {
		limit = maxReviewLimit
	}

	query := "SELECT " + reviewColumns + " FROM reviews WHERE is_approved = TRUE"
	args := []any{}
	if state = strings.TrimSpace(state); state != "" {
		query += " AND state = ?"
		args = append(args, state)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store("list reviews", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, apperr.Store("scan review", err)
		}
		reviews = append(reviews, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list reviews", err)
	}
	return reviews, nil
}

func (s *ReviewService) Get(ctx context.Context, id string) (*models.Review, error) {
	review, err := scanReview(s.db.QueryRowContext(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, apperr.Store("get review", err)
	}
	return review, nil
}

// SetApproved flips the moderation flag. Rejected reviews stay stored but
// drop out of every public listing and statistic.
func (s *ReviewService) SetApproved(ctx context.Context, id string, approved bool) (*models.Review, error) {
	result, err := s.db.ExecContext(ctx, "UPDATE reviews SET is_approved = ? WHERE id = ?", approved, id)
	if err != nil {
		return nil, apperr.Store("update review", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, ErrReviewNotFound
	}
	return s.Get(ctx, id)
}

func (s *ReviewService) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return apperr.Store("delete review", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// StateStats summarizes approved reviews for one state. A state without
// reviews reports zeros.
func (s *ReviewService) StateStats(ctx context.Context, state string) (*models.StateStats, error) {
	stats := &models.StateStats{State: state}
	var avgRating, avgWage sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(rating), AVG(wages) FROM reviews WHERE state = ? AND is_approved = TRUE", state,
	).Scan(&stats.ReviewCount, &avgRating, &avgWage)
	if err != nil {
		return nil, apperr.Store("state stats", err)
	}
	stats.AvgRating = round(avgRating.Float64, 1)
	stats.AvgWage = round(avgWage.Float64, 2)
	return stats, nil
}

// AllStatesStats summarizes every state with approved reviews, best rated
// first.
func (s *ReviewService) AllStatesStats(ctx context.Context) ([]models.StateStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, COUNT(*), AVG(rating), AVG(wages)
		FROM reviews
		WHERE is_approved = TRUE
		GROUP BY state
		ORDER BY AVG(rating) DESC, state
	`)
	if err != nil {
		return nil, apperr.Store("all state stats", err)
	}
	defer rows.Close()

	stats := []models.StateStats{}
	for rows.Next() {
		var st models.StateStats
		if err := rows.Scan(&st.State, &st.ReviewCount, &st.AvgRating, &st.AvgWage); err != nil {
			return nil, apperr.Store("scan state stats", err)
		}
		st.AvgRating = round(st.AvgRating, 1)
		st.AvgWage = round(st.AvgWage, 2)
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("all state stats", err)
	}
	return stats, nil
}

// Analytics counts distinct visitors per state and their average revisit
// count, using the earliest review of each visitor in a state.
func (s *ReviewService) Analytics(ctx context.Context) ([]models.StateAnalytics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, COUNT(*), AVG(times_used)
		FROM (
			SELECT r.state, r.user_id, r.times_used
			FROM reviews r
			WHERE r.is_approved = TRUE AND r.tos_accepted = TRUE
				AND r.created_at = (
					SELECT MIN(f.created_at) FROM reviews f
					WHERE f.state = r.state AND f.user_id = r.user_id
						AND f.is_approved = TRUE AND f.tos_accepted = TRUE
				)
			GROUP BY r.state, r.user_id
		)
		GROUP BY state
		ORDER BY COUNT(*) DESC, state
	`)
	if err != nil {
		return nil, apperr.Store("state analytics", err)
	}
	defer rows.Close()

	analytics := []models.StateAnalytics{}
	for rows.Next() {
		var a models.StateAnalytics
		if err := rows.Scan(&a.State, &a.TotalVisitors, &a.AvgRevisit); err != nil {
			return nil, apperr.Store("scan state analytics", err)
		}
		a.AvgRevisit = round(a.AvgRevisit, 2)
		analytics = append(analytics, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("state analytics", err)
	}
	return analytics, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
