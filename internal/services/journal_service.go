package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"moodcircle/internal/access"
	"moodcircle/internal/metrics"
	"moodcircle/internal/models"
	"moodcircle/internal/store"
)

const (
	DefaultStatsDays = 7
	MaxStatsDays     = 90
)

type JournalService struct {
	store  store.Store
	enc    *EncryptionService
	logger *zap.Logger
	now    func() time.Time
}

// NewJournalService wires the journal service. enc may be nil to store content as is.
func NewJournalService(st store.Store, enc *EncryptionService, logger *zap.Logger) *JournalService {
	return &JournalService{store: st, enc: enc, logger: logger, now: time.Now}
}

type CreateJournalInput struct {
	Title              string
	Content            string
	Category           string
	Mood               models.Mood
	MoodColor          string
	IsPublic           bool
	SharedWithCircleID *int
}

func (in *CreateJournalInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if in.Title == "" {
		return validationf("title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return validationf("content is required")
	}
	if in.Category == "" {
		return validationf("category is required")
	}
	if in.Mood == "" {
		in.Mood = models.MoodNeutral
	}
	if !in.Mood.Valid() {
		return validationf("invalid mood %q", in.Mood)
	}
	if in.MoodColor == "" {
		in.MoodColor = in.Mood.Color()
	}
	return nil
}

// memberships resolves the circles userID belongs to right now.
func (s *JournalService) memberships(ctx context.Context, userID int) (access.Memberships, error) {
	circles, err := s.store.ListCirclesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return access.MembershipsOf(circles), nil
}

func (s *JournalService) Create(ctx context.Context, ownerID int, in CreateJournalInput) (*models.Journal, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if in.SharedWithCircleID != nil {
		memberOf, err := s.memberships(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if !access.CanShareWithCircle(*in.SharedWithCircleID, memberOf) {
			return nil, forbidden("You are not a member of this circle")
		}
	}

	journal := models.Journal{
		UserID:             ownerID,
		Title:              in.Title,
		Content:            in.Content,
		Category:           in.Category,
		Mood:               in.Mood,
		MoodColor:          in.MoodColor,
		IsPublic:           in.IsPublic,
		SharedWithCircleID: in.SharedWithCircleID,
		CreatedAt:          s.now().UTC(),
	}
	sealed := journal
	if err := s.enc.SealJournal(&sealed); err != nil {
		return nil, err
	}
	if err := s.store.CreateJournal(ctx, &sealed); err != nil {
		return nil, err
	}
	journal.ID = sealed.ID

	metrics.JournalsCreated.Inc()
	s.logger.Info("journal created",
		zap.Int("journal_id", journal.ID),
		zap.Int("user_id", ownerID),
		zap.String("mood", string(journal.Mood)),
		zap.Bool("public", journal.IsPublic),
	)
	return &journal, nil
}

// ListAccessible returns every journal userID may read.
func (s *JournalService) ListAccessible(ctx context.Context, userID int) ([]models.Journal, error) {
	all, err := s.store.ListJournals(ctx)
	if err != nil {
		return nil, err
	}
	memberOf, err := s.memberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Journal, 0, len(all))
	for _, j := range all {
		if access.CanReadJournal(j, userID, memberOf) {
			visible = append(visible, j)
		}
	}
	if err := s.enc.OpenJournals(visible); err != nil {
		return nil, err
	}
	return visible, nil
}

func (s *JournalService) ListOwn(ctx context.Context, userID int) ([]models.Journal, error) {
	journals, err := s.store.ListJournalsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if journals == nil {
		journals = []models.Journal{}
	}
	if err := s.enc.OpenJournals(journals); err != nil {
		return nil, err
	}
	return journals, nil
}

func (s *JournalService) Get(ctx context.Context, id, userID int) (*models.Journal, error) {
	journal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	memberOf, err := s.memberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !access.CanReadJournal(*journal, userID, memberOf) {
		return nil, forbidden("You do not have access to this journal")
	}
	if err := s.enc.OpenJournal(journal); err != nil {
		return nil, err
	}
	return journal, nil
}

// UpdateSharing points a journal at circleID, or makes it circle-private when
// circleID is nil. Membership is checked at call time.
func (s *JournalService) UpdateSharing(ctx context.Context, id, requesterID int, circleID *int) (*models.Journal, error) {
	journal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if journal.UserID != requesterID {
		return nil, forbidden("Only the owner can change sharing")
	}
	if circleID != nil {
		memberOf, err := s.memberships(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		if !access.CanShareWithCircle(*circleID, memberOf) {
			return nil, forbidden("You are not a member of this circle")
		}
	}

	updated, err := s.store.UpdateJournalSharing(ctx, id, circleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("journal not found")
		}
		return nil, err
	}
	if err := s.enc.OpenJournal(updated); err != nil {
		return nil, err
	}

	outcome := "unshared"
	fields := []zap.Field{zap.Int("journal_id", id), zap.Int("user_id", requesterID)}
	if circleID != nil {
		outcome = "shared"
		fields = append(fields, zap.Int("circle_id", *circleID))
	}
	metrics.JournalShares.WithLabelValues(outcome).Inc()
	s.logger.Info("journal sharing updated", fields...)
	return updated, nil
}

func (s *JournalService) load(ctx context.Context, id int) (*models.Journal, error) {
	journal, err := s.store.GetJournal(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("journal not found")
		}
		return nil, err
	}
	return journal, nil
}

type MoodDay struct {
	Date    string  `json:"date"`
	Mood    float64 `json:"mood"`
	Entries int     `json:"entries"`
}

type MoodSummary struct {
	Counts map[models.Mood]int `json:"counts"`
	Days   []MoodDay           `json:"days"`
}

// MoodSummary counts the caller's journals per mood and averages mood values per
// UTC day over the last days days, oldest first. Days without entries report 0.
// Entries older than the window are ignored.
func (s *JournalService) MoodSummary(ctx context.Context, userID, days int) (*MoodSummary, error) {
	if days == 0 {
		days = DefaultStatsDays
	}
	if days < 1 || days > MaxStatsDays {
		return nil, validationf("days must be between 1 and %d", MaxStatsDays)
	}

	journals, err := s.store.ListJournalsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &MoodSummary{Counts: make(map[models.Mood]int, len(models.Moods))}
	for _, m := range models.Moods {
		summary.Counts[m] = 0
	}

	today := s.now().UTC()
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	type bucket struct{ sum, n int }
	byDay := make(map[string]*bucket)
	for _, j := range journals {
		if j.CreatedAt.Before(start) {
			continue
		}
		summary.Counts[j.Mood]++
		key := j.CreatedAt.UTC().Format(time.DateOnly)
		b, ok := byDay[key]
		if !ok {
			b = &bucket{}
			byDay[key] = b
		}
		b.sum += j.Mood.Value()
		b.n++
	}

	for i := days - 1; i >= 0; i-- {
		key := today.AddDate(0, 0, -i).Format(time.DateOnly)
		day := MoodDay{Date: key}
		if b, ok := byDay[key]; ok {
			day.Mood = float64(b.sum) / float64(b.n)
			day.Entries = b.n
		}
		summary.Days = append(summary.Days, day)
	}
	return summary, nil
}
