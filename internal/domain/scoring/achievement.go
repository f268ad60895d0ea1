package scoring

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// AchievementCategory groups achievements for the catalog listing endpoint.
type AchievementCategory string

const (
	CategoryLevel    AchievementCategory = "level"
	CategoryActivity AchievementCategory = "activity"
	CategoryPurchase AchievementCategory = "purchase"
	CategorySocial   AchievementCategory = "social"
	CategoryStreak   AchievementCategory = "streak"
	CategorySpecial  AchievementCategory = "special"
)

// IsValid checks that the category is one of the known groups.
func (c AchievementCategory) IsValid() bool {
	switch c {
	case CategoryLevel, CategoryActivity, CategoryPurchase, CategorySocial,
		CategoryStreak, CategorySpecial:
		return true
	default:
		return false
	}
}

// ProgressType is the shape of an achievement's unlock rule.
type ProgressType string

const (
	// ProgressBinary - earned the first time the triggering action occurs.
	ProgressBinary ProgressType = "binary"
	// ProgressLevel - earned when the user's level reaches the target.
	ProgressLevel ProgressType = "level"
	// ProgressCount - earned when a per-action counter reaches the target.
	ProgressCount ProgressType = "count"
	// ProgressStreak - earned when the daily-login streak reaches the target.
	ProgressStreak ProgressType = "streak"
	// ProgressCumulative - earned when a cumulative total reaches the target.
	ProgressCumulative ProgressType = "cumulative"
	// ProgressPercentage - earned when a caller-supplied percentage reaches
	// the target.
	ProgressPercentage ProgressType = "percentage"
	// ProgressDuration - earned when a caller-supplied day count reaches the
	// target.
	ProgressDuration ProgressType = "duration"
)

// Achievement is one entry of the static catalog. The catalog is code, not
// data: per-user state is only the unlocked id list on UserProgress.
type Achievement struct {
	// ID - stable identifier stored on UserProgress.
	ID string

	// Name - display name.
	Name string

	// Description - display description.
	Description string

	// Category - catalog group.
	Category AchievementCategory

	// Type - shape of the unlock rule.
	Type ProgressType

	// Target - threshold the rule's measured value must reach.
	Target int64

	// RewardPoints - one-time bonus advertised for unlocking. Crediting it
	// is optional and event-driven; the award path never folds it into the
	// triggering transaction.
	RewardPoints int64

	// unlocked decides whether the rule is satisfied by the refreshed
	// snapshot in the context of the triggering action.
	unlocked func(rctx ruleContext) bool
}

// ruleContext is what a rule sees: the post-increment snapshot, the action
// that triggered evaluation, and its typed metadata.
type ruleContext struct {
	progress *UserProgress
	action   Action
	metadata Metadata
}

// Catalog returns the full achievement catalog in declaration order. The
// order is stable so that evaluation results are deterministic.
func Catalog() []Achievement {
	return catalog
}

// CatalogByCategory filters the catalog, preserving declaration order.
func CatalogByCategory(category AchievementCategory) []Achievement {
	out := make([]Achievement, 0, len(catalog))
	for _, a := range catalog {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// CatalogSize returns the number of catalog entries.
func CatalogSize() int {
	return len(catalog)
}

// FindAchievement looks up a catalog entry by id.
func FindAchievement(id string) (Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

var catalog = []Achievement{
	{
		ID:          "first_purchase",
		Name:        "First Purchase",
		Description: "Complete your first order",
		Category:    CategoryPurchase,
		Type:        ProgressBinary,
		Target:      1,
		unlocked: func(r ruleContext) bool {
			return r.action == ActionPurchase
		},
	},
	{
		ID:          "first_course",
		Name:        "First Steps",
		Description: "Complete your first course",
		Category:    CategoryActivity,
		Type:        ProgressBinary,
		Target:      1,
		unlocked: func(r ruleContext) bool {
			return r.action == ActionCourseComplete
		},
	},
	{
		ID:          "course_collector_5",
		Name:        "Course Collector",
		Description: "Complete 5 courses",
		Category:    CategoryActivity,
		Type:        ProgressCount,
		Target:      5,
		unlocked: func(r ruleContext) bool {
			return int64(r.progress.CoursesCompleted) >= 5
		},
	},
	{
		ID:          "course_master_20",
		Name:        "Course Master",
		Description: "Complete 20 courses",
		Category:    CategoryActivity,
		Type:        ProgressCount,
		Target:      20,
		unlocked: func(r ruleContext) bool {
			return int64(r.progress.CoursesCompleted) >= 20
		},
	},
	{
		ID:          "first_referral",
		Name:        "Friend Bringer",
		Description: "Refer your first friend",
		Category:    CategorySocial,
		Type:        ProgressBinary,
		Target:      1,
		unlocked: func(r ruleContext) bool {
			return r.action == ActionReferral
		},
	},
	{
		ID:          "referral_network_5",
		Name:        "Network Builder",
		Description: "Refer 5 friends",
		Category:    CategorySocial,
		Type:        ProgressCount,
		Target:      5,
		unlocked: func(r ruleContext) bool {
			return int64(r.progress.ReferralCount) >= 5
		},
	},
	{
		ID:          "review_contributor_10",
		Name:        "Trusted Reviewer",
		Description: "Write 10 reviews",
		Category:    CategoryActivity,
		Type:        ProgressCount,
		Target:      10,
		unlocked: func(r ruleContext) bool {
			return int64(r.progress.ReviewCount) >= 10
		},
	},
	{
		ID:          "workshop_regular_5",
		Name:        "Workshop Regular",
		Description: "Book 5 workshops",
		Category:    CategoryActivity,
		Type:        ProgressCount,
		Target:      5,
		unlocked: func(r ruleContext) bool {
			return int64(r.progress.WorkshopCount) >= 5
		},
	},
	{
		ID:          "social_butterfly_10",
		Name:        "Social Butterfly",
		Description: "Share content 10 times",
		Category:    CategorySocial,
		Type:        ProgressCount,
		Target:      10,
		unlocked: func(r ruleContext) bool {
			return int64(r.progress.SocialShareCount) >= 10
		},
	},
	{
		ID:           "level_up_5",
		Name:         "Rising Star",
		Description:  "Reach level 5",
		Category:     CategoryLevel,
		Type:         ProgressLevel,
		Target:       5,
		RewardPoints: 100,
		unlocked: func(r ruleContext) bool {
			return r.progress.Level >= 5
		},
	},
	{
		ID:           "level_up_10",
		Name:         "Dedicated Learner",
		Description:  "Reach level 10",
		Category:     CategoryLevel,
		Type:         ProgressLevel,
		Target:       10,
		RewardPoints: 250,
		unlocked: func(r ruleContext) bool {
			return r.progress.Level >= 10
		},
	},
	{
		ID:           "level_up_25",
		Name:         "Platform Veteran",
		Description:  "Reach level 25",
		Category:     CategoryLevel,
		Type:         ProgressLevel,
		Target:       25,
		RewardPoints: 500,
		unlocked: func(r ruleContext) bool {
			return r.progress.Level >= 25
		},
	},
	{
		ID:           "level_up_50",
		Name:         "Living Legend",
		Description:  "Reach level 50",
		Category:     CategoryLevel,
		Type:         ProgressLevel,
		Target:       50,
		RewardPoints: 1000,
		unlocked: func(r ruleContext) bool {
			return r.progress.Level >= 50
		},
	},
	{
		ID:           "streak_7",
		Name:         "Week Warrior",
		Description:  "Log in 7 days in a row",
		Category:     CategoryStreak,
		Type:         ProgressStreak,
		Target:       7,
		RewardPoints: 100,
		unlocked: func(r ruleContext) bool {
			return int64(r.progress.DailyLoginStreak) >= 7
		},
	},
	{
		ID:           "streak_30",
		Name:         "Monthly Devotee",
		Description:  "Log in 30 days in a row",
		Category:     CategoryStreak,
		Type:         ProgressStreak,
		Target:       30,
		RewardPoints: 500,
		unlocked: func(r ruleContext) bool {
			return int64(r.progress.DailyLoginStreak) >= 30
		},
	},
	{
		ID:           "streak_100",
		Name:         "Centurion",
		Description:  "Log in 100 days in a row",
		Category:     CategoryStreak,
		Type:         ProgressStreak,
		Target:       100,
		RewardPoints: 2000,
		unlocked: func(r ruleContext) bool {
			return int64(r.progress.DailyLoginStreak) >= 100
		},
	},
	{
		ID:          "big_spender",
		Name:        "Big Spender",
		Description: "Earn 1000 points from purchases",
		Category:    CategoryPurchase,
		Type:        ProgressCumulative,
		Target:      1000,
		unlocked: func(r ruleContext) bool {
			return r.progress.PointsFromPurchases >= 1000
		},
	},
	{
		ID:          "profile_complete",
		Name:        "All Set",
		Description: "Complete your profile to 100%",
		Category:    CategorySpecial,
		Type:        ProgressPercentage,
		Target:      100,
		unlocked: func(r ruleContext) bool {
			if r.action != ActionProfileComplete {
				return false
			}
			if m, ok := r.metadata.(ProfileMetadata); ok {
				return m.CompletionPercent >= 100
			}
			// The action alone implies full completion when no metadata
			// accompanies it.
			return true
		},
	},
	{
		ID:          "loyal_member",
		Name:        "Loyal Member",
		Description: "Stay active for 365 days",
		Category:    CategorySpecial,
		Type:        ProgressDuration,
		Target:      365,
		unlocked: func(r ruleContext) bool {
			m, ok := r.metadata.(MembershipMetadata)
			return ok && m.ActiveDays >= 365
		},
	},
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// Evaluator runs the catalog rules against a refreshed progress snapshot.
// It is stateless and safe for concurrent use.
type Evaluator struct{}

// NewEvaluator creates an achievement evaluator over the static catalog.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns the ids of achievements newly satisfied by the snapshot,
// in catalog order. Ids already present on the snapshot are never returned
// again, so unlocking stays exactly-once even if evaluation runs twice on
// the same state.
func (e *Evaluator) Evaluate(progress *UserProgress, action Action, metadata Metadata) []string {
	if progress == nil {
		return nil
	}

	rctx := ruleContext{progress: progress, action: action, metadata: metadata}

	var earned []string
	for _, a := range catalog {
		if progress.HasAchievement(a.ID) {
			continue
		}
		if a.unlocked(rctx) {
			earned = append(earned, a.ID)
		}
	}
	return earned
}
