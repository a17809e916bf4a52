package marketplace

import (
	"context"
	"fmt"

	"github.com/sudo-init-do/favo/internal/domain"
)

const defaultFeaturedLimit = 6

// UpsertRating records rater's score of another user, replacing any earlier one.
func (s *Service) UpsertRating(ctx context.Context, rater int64, req RatingRequest) (domain.Rating, error) {
	if req.Score < domain.MinScore || req.Score > domain.MaxScore {
		return domain.Rating{}, fmt.Errorf("%w: score must be between %d and %d", domain.ErrInvalidInput, domain.MinScore, domain.MaxScore)
	}
	if req.RatedID == rater {
		return domain.Rating{}, fmt.Errorf("%w: cannot rate yourself", domain.ErrInvalidInput)
	}
	if _, err := s.st.Users.GetUser(ctx, req.RatedID); err != nil {
		return domain.Rating{}, err
	}

	r, err := s.st.Ratings.UpsertRating(ctx, domain.Rating{
		RaterID: rater,
		RatedID: req.RatedID,
		Score:   req.Score,
		Comment: trimmed(req.Comment),
	})
	if err != nil {
		return domain.Rating{}, err
	}

	ev := s.newEvent(domain.EventRatingSubmitted, r.RatedID, rater, fmt.Sprintf("%d/%d", r.Score, domain.MaxScore))
	ev.RefID = r.ID
	s.publish(ctx, ev)
	return r, nil
}

func (s *Service) ListRatingsFor(ctx context.Context, rated int64) ([]domain.Rating, error) {
	return s.st.Ratings.ListRatings(ctx, rated)
}

func (s *Service) RatingAverage(ctx context.Context, rated int64) (domain.RatingSummary, error) {
	return s.st.Ratings.RatingSummary(ctx, rated)
}

// MyRating returns the rating rater gave rated, or domain.ErrNotFound.
func (s *Service) MyRating(ctx context.Context, rater, rated int64) (domain.Rating, error) {
	return s.st.Ratings.GetRating(ctx, rater, rated)
}

func (s *Service) FeaturedProfessionals(ctx context.Context, limit int) ([]domain.Professional, error) {
	if limit <= 0 {
		limit = defaultFeaturedLimit
	}
	return s.st.Ratings.FeaturedProfessionals(ctx, limit)
}
