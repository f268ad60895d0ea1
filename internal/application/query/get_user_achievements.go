package query

import (
	"context"
	"math"
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER ACHIEVEMENTS QUERY
// Splits the static catalog into earned and locked sets for one user.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserAchievementsQuery contains the query parameters.
type GetUserAchievementsQuery struct {
	// UserID is the user whose achievements are requested.
	UserID string

	// Category filters the catalog (empty = all).
	Category string

	// IncludeLocked adds the not-yet-earned entries to the response.
	IncludeLocked bool
}

// Validate validates the query.
func (q *GetUserAchievementsQuery) Validate() error {
	if _, err := shared.NewUserID(q.UserID); err != nil {
		return err
	}
	if q.Category != "" && !scoring.AchievementCategory(q.Category).IsValid() {
		return shared.NewDomainError("query", "GetUserAchievements", shared.ErrInvalidInput,
			"unknown achievement category: "+q.Category)
	}
	return nil
}

// AchievementDTO is one catalog entry in the response.
type AchievementDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Type         string `json:"type"`
	Target       int64  `json:"target"`
	RewardPoints int64  `json:"reward_points,omitempty"`
}

// GetUserAchievementsResult is the query response.
type GetUserAchievementsResult struct {
	// Earned lists unlocked achievements in catalog order.
	Earned []AchievementDTO `json:"earned"`

	// Locked lists the remaining entries; only when IncludeLocked was set.
	Locked []AchievementDTO `json:"locked,omitempty"`

	// CompletionPercentage is earned / catalog size over the filtered set,
	// rounded half-up.
	CompletionPercentage int `json:"completion_percentage"`

	// GeneratedAt is when the result was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetUserAchievementsHandler handles the GetUserAchievementsQuery.
type GetUserAchievementsHandler struct {
	progressStore scoring.ProgressStore
}

// NewGetUserAchievementsHandler creates a new GetUserAchievementsHandler.
func NewGetUserAchievementsHandler(progressStore scoring.ProgressStore) *GetUserAchievementsHandler {
	return &GetUserAchievementsHandler{progressStore: progressStore}
}

// Handle executes the query. Users without a progress record simply have
// everything locked.
func (h *GetUserAchievementsHandler) Handle(ctx context.Context, query GetUserAchievementsQuery) (*GetUserAchievementsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	unlocked := map[string]bool{}
	progress, err := h.progressStore.Get(ctx, shared.UserID(query.UserID))
	if err != nil && !shared.IsNotFound(err) {
		return nil, shared.WrapError("query", "GetUserAchievements", shared.ErrStorageFailure, "failed to load progress", err)
	}
	if progress != nil {
		for _, id := range progress.Achievements {
			unlocked[id] = true
		}
	}

	catalog := scoring.Catalog()
	if query.Category != "" {
		catalog = scoring.CatalogByCategory(scoring.AchievementCategory(query.Category))
	}

	result := &GetUserAchievementsResult{
		Earned:      make([]AchievementDTO, 0, len(catalog)),
		GeneratedAt: time.Now().UTC(),
	}
	if query.IncludeLocked {
		result.Locked = make([]AchievementDTO, 0, len(catalog))
	}

	earnedCount := 0
	for _, a := range catalog {
		dto := toAchievementDTO(a)
		if unlocked[a.ID] {
			result.Earned = append(result.Earned, dto)
			earnedCount++
		} else if query.IncludeLocked {
			result.Locked = append(result.Locked, dto)
		}
	}

	if len(catalog) > 0 {
		result.CompletionPercentage = int(math.Round(float64(earnedCount) / float64(len(catalog)) * 100))
	}

	return result, nil
}

// toAchievementDTO converts a catalog entry into its response form.
func toAchievementDTO(a scoring.Achievement) AchievementDTO {
	return AchievementDTO{
		ID:           a.ID,
		Name:         a.Name,
		Description:  a.Description,
		Category:     string(a.Category),
		Type:         string(a.Type),
		Target:       a.Target,
		RewardPoints: a.RewardPoints,
	}
}
