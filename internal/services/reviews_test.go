package services

import (
	"context"
	"testing"
	"time"

	"jamwathq/internal/apperr"
	"jamwathq/internal/database"
	"jamwathq/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func validReview(state string, rating int, wages float64) models.ReviewInput {
	return models.ReviewInput{
		State:        state,
		JobTitle:     "Lifeguard",
		Wages:        wages,
		HoursPerWeek: 40,
		Rating:       rating,
		Experience:   "Great summer on the beach.",
		TOSAccepted:  true,
	}
}

func TestReviewService_SubmitValidation(t *testing.T) {
	svc := NewReviewService(newTestDB(t), nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, models.Visitor{ID: "u1", FirstName: "Kerry"}, models.ReviewInput{
		Rating:       7,
		HoursPerWeek: 0,
		UserGender:   "robot",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
	problems := apperr.As(err).Fields["errors"].([]string)
	assert.Contains(t, problems, "Terms of Service must be accepted before submitting a review.")
	assert.Contains(t, problems, "Rating must be an integer between 1 and 5.")
	assert.Contains(t, problems, "Hours per week must be between 1 and 80.")
	assert.Len(t, problems, 7)

	review, err := svc.Submit(ctx, models.Visitor{ID: "u1", FirstName: "Kerry"}, validReview(" Florida ", 4, 12.5))
	require.NoError(t, err)
	assert.Equal(t, "Florida", review.State)
	assert.Equal(t, 1, review.TimesUsed)
	assert.Equal(t, "unknown", review.UserGender)
	assert.True(t, review.IsApproved)
}

func TestReviewService_StatsIgnoreUnapproved(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewReviewService(newTestDB(t), clock.Now)
	ctx := context.Background()

	submit := func(user, state string, rating int, wages float64) *models.Review {
		r, err := svc.Submit(ctx, models.Visitor{ID: user, FirstName: "V"}, validReview(state, rating, wages))
		require.NoError(t, err)
		clock.Advance(time.Minute)
		return r
	}

	submit("u1", "Florida", 5, 15)
	submit("u2", "Florida", 4, 12)
	hidden := submit("u3", "Florida", 1, 100)
	submit("u1", "Maine", 3, 10)

	_, err := svc.SetApproved(ctx, hidden.ID, false)
	require.NoError(t, err)

	florida, err := svc.StateStats(ctx, "Florida")
	require.NoError(t, err)
	assert.Equal(t, models.StateStats{State: "Florida", ReviewCount: 2, AvgRating: 4.5, AvgWage: 13.5}, *florida)

	empty, err := svc.StateStats(ctx, "Ohio")
	require.NoError(t, err)
	assert.Equal(t, models.StateStats{State: "Ohio"}, *empty)

	all, err := svc.AllStatesStats(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Florida", all[0].State)
	assert.Equal(t, "Maine", all[1].State)

	listed, err := svc.List(ctx, "Florida", 0)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestReviewService_Analytics(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewReviewService(newTestDB(t), clock.Now)
	ctx := context.Background()

	submit := func(user string, timesUsed int) {
		in := validReview("Florida", 4, 12)
		in.TimesUsed = timesUsed
		_, err := svc.Submit(ctx, models.Visitor{ID: user, FirstName: "V"}, in)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	submit("u1", 2)
	submit("u1", 9) // later review by the same visitor is not counted again
	submit("u2", 3)

	analytics, err := svc.Analytics(ctx)
	require.NoError(t, err)
	require.Len(t, analytics, 1)
	assert.Equal(t, models.StateAnalytics{State: "Florida", TotalVisitors: 2, AvgRevisit: 2.5}, analytics[0])
}

func TestReviewService_ModerationNotFound(t *testing.T) {
	svc := NewReviewService(newTestDB(t), nil)
	ctx := context.Background()

	_, err := svc.SetApproved(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrReviewNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), ErrReviewNotFound)

	review, err := svc.Submit(ctx, models.Visitor{ID: "u1", FirstName: "V"}, validReview("Maine", 3, 9))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, review.ID))
	_, err = svc.Get(ctx, review.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestAgencyReviewService_Submit(t *testing.T) {
	svc := NewAgencyReviewService(newTestDB(t), nil)
	ctx := context.Background()
	visitor := models.Visitor{ID: "u1", FirstName: "Kerry"}

	_, err := svc.Submit(ctx, visitor, models.AgencyReviewInput{
		AgencyID:   "x",
		AgencyName: "X",
		Comments:   "   too    short   ",
	}, "ip")
	require.Error(t, err)
	problems := apperr.As(err).Fields["errors"].([]string)
	assert.Len(t, problems, 8)

	review, err := svc.Submit(ctx, visitor, models.AgencyReviewInput{
		AgencyID:           "  InterExchange ",
		AgencyName:         "InterExchange",
		ApplicationProcess: 5,
		CustomerService:    4,
		Communication:      4,
		SupportServices:    3,
		OverallExperience:  5,
		UsageFrequency:     2,
		Comments:           "Helpful   staff\n and quick visa paperwork.",
		TOSAccepted:        true,
	}, "203.0.113.5")
	require.NoError(t, err)
	assert.Equal(t, "interexchange", review.AgencyID)
	assert.Equal(t, 4.2, review.OverallRating)
	assert.Equal(t, "Helpful staff and quick visa paperwork.", review.Comments)

	reviews, err := svc.ForAgency(ctx, "INTEREXCHANGE")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "203.0.113.5", reviews[0].IPAddress)

	_, err = svc.ForAgency(ctx, "  ")
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
}

func TestAgencyReviewService_OverallRatingRange(t *testing.T) {
	svc := NewAgencyReviewService(newTestDB(t), nil)
	ctx := context.Background()
	visitor := models.Visitor{ID: "u1", FirstName: "Kerry"}
	valid := func(overall float64) models.AgencyReviewInput {
		return models.AgencyReviewInput{
			AgencyID:           "interexchange",
			AgencyName:         "InterExchange",
			ApplicationProcess: 4,
			CustomerService:    4,
			Communication:      4,
			SupportServices:    4,
			OverallExperience:  4,
			OverallRating:      overall,
			UsageFrequency:     1,
			Comments:           "Clear instructions and fast replies.",
			TOSAccepted:        true,
		}
	}

	for _, overall := range []float64{99, -3, 0.5, 5.1} {
		_, err := svc.Submit(ctx, visitor, valid(overall), "ip")
		require.Error(t, err, overall)
		assert.Equal(t, []string{"Overall rating must be between 1 and 5."}, apperr.As(err).Fields["errors"], overall)
	}

	review, err := svc.Submit(ctx, visitor, valid(3.5), "ip")
	require.NoError(t, err)
	assert.Equal(t, 3.5, review.OverallRating)

	reviews, err := svc.ForAgency(ctx, "interexchange")
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}
