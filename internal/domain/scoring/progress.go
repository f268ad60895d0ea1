package scoring

import (
	"fmt"
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS STATUS
// ══════════════════════════════════════════════════════════════════════════════

// ProgressStatus is the administrative state of a user's progress record.
type ProgressStatus string

const (
	// ProgressStatusActive - normal state; eligible for the leaderboard.
	ProgressStatusActive ProgressStatus = "active"
	// ProgressStatusFrozen - administratively frozen; hidden from the leaderboard.
	ProgressStatusFrozen ProgressStatus = "frozen"
	// ProgressStatusPenalty - flagged after repeated penalties; hidden from the leaderboard.
	ProgressStatusPenalty ProgressStatus = "penalty"
)

// IsValid checks that the status is one of the known states.
func (s ProgressStatus) IsValid() bool {
	switch s {
	case ProgressStatusActive, ProgressStatusFrozen, ProgressStatusPenalty:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// USER PROGRESS (mutable aggregate, 1:1 with user)
// ══════════════════════════════════════════════════════════════════════════════

// UserProgress is the per-user scoring aggregate. It is created lazily on
// the first award and mutated only through atomic deltas derived from
// ledger rows.
//
// Invariants:
//   - Level == CalculateLevel(TotalLifetimePoints)
//   - TotalLifetimePoints == sum of the five breakdown buckets
//   - AchievementCount == len(Achievements), no duplicates
//   - LevelProgressPercent in [0,100]
//   - TotalLifetimePoints is monotonically non-decreasing; penalties reduce
//     CurrentPoints only.
type UserProgress struct {
	// UserID - the owning user.
	UserID shared.UserID

	// CurrentPoints - spendable points; tracks lifetime minus penalties.
	CurrentPoints int64

	// TotalLifetimePoints - cumulative points ever earned; drives the level.
	TotalLifetimePoints int64

	// Level - derived from TotalLifetimePoints.
	Level int

	// Achievements - unlocked achievement ids; insertion order is not
	// significant.
	Achievements []string

	// AchievementCount - always equals len(Achievements).
	AchievementCount int

	// PointsToNextLevel - derived: points missing to the next level.
	PointsToNextLevel int64

	// LevelProgressPercent - derived: progress within the current level.
	LevelProgressPercent int

	// Per-source breakdown. Each bucket is non-negative and the five sum to
	// TotalLifetimePoints.
	PointsFromPurchases  int64
	PointsFromCourses    int64
	PointsFromReferrals  int64
	PointsFromActivities int64
	PointsFromBonuses    int64

	// TotalPenalties - number of penalty transactions applied.
	TotalPenalties int

	// PointsLostToPenalties - absolute sum of penalty deductions.
	PointsLostToPenalties int64

	// CurrentMultiplier - reserved for campaign multipliers; 1.0 by default.
	CurrentMultiplier float64

	// IsFrozen - frozen users keep earning but are hidden from the leaderboard.
	IsFrozen bool

	// Status - administrative state.
	Status ProgressStatus

	// DailyLoginStreak - consecutive UTC calendar days with a login bonus.
	DailyLoginStreak int

	// MaxDailyLoginStreak - best streak ever reached.
	MaxDailyLoginStreak int

	// TotalLogins - total daily-login bonuses ever credited.
	TotalLogins int

	// Action counters feeding the count-based achievement rules.
	PurchaseCount    int
	CoursesCompleted int
	ReferralCount    int
	ReviewCount      int
	WorkshopCount    int
	SocialShareCount int

	// LastLoginAt - when the last daily-login bonus was credited; the
	// streak machine compares its UTC date against today.
	LastLoginAt time.Time

	// LastPointsEarnedAt - when any points were last credited.
	LastPointsEarnedAt time.Time

	// LastLevelUpAt - when the level last increased.
	LastLevelUpAt time.Time

	// LastAchievementAt - when an achievement was last unlocked.
	LastAchievementAt time.Time

	// CreatedAt - when the record was created.
	CreatedAt time.Time

	// UpdatedAt - when the record was last modified.
	UpdatedAt time.Time
}

// NewUserProgress creates a zeroed progress record at level 1.
func NewUserProgress(userID shared.UserID, now time.Time) *UserProgress {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	p := &UserProgress{
		UserID:            userID,
		Level:             1,
		CurrentMultiplier: 1.0,
		Status:            ProgressStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	p.RefreshDerived()
	return p
}

// RefreshDerived recomputes the fields derived from TotalLifetimePoints.
// The stored Level is NOT touched here: level transitions are detected and
// stamped by the award path so that LastLevelUpAt stays accurate.
func (p *UserProgress) RefreshDerived() {
	p.PointsToNextLevel, p.LevelProgressPercent = CalculateProgress(p.TotalLifetimePoints)
}

// DerivedLevel returns the level implied by the current lifetime total.
func (p *UserProgress) DerivedLevel() int {
	return CalculateLevel(p.TotalLifetimePoints)
}

// BreakdownTotal sums the five per-source buckets.
func (p *UserProgress) BreakdownTotal() int64 {
	return p.PointsFromPurchases +
		p.PointsFromCourses +
		p.PointsFromReferrals +
		p.PointsFromActivities +
		p.PointsFromBonuses
}

// HasAchievement reports whether the achievement id is already unlocked.
func (p *UserProgress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// RankEligible reports whether the user appears on the leaderboard.
func (p *UserProgress) RankEligible() bool {
	return !p.IsFrozen && p.Status == ProgressStatusActive
}

// CheckInvariants verifies the aggregate's numeric invariants. Used by
// tests and the reconciliation pass; a violation indicates ledger drift.
func (p *UserProgress) CheckInvariants() error {
	if p.Level != p.DerivedLevel() {
		return shared.NewDomainError("scoring", "CheckInvariants", shared.ErrInvalidState,
			fmt.Sprintf("level %d does not match lifetime points %d", p.Level, p.TotalLifetimePoints))
	}
	if p.BreakdownTotal() != p.TotalLifetimePoints {
		return shared.NewDomainError("scoring", "CheckInvariants", shared.ErrInvalidState,
			fmt.Sprintf("breakdown sum %d does not match lifetime points %d", p.BreakdownTotal(), p.TotalLifetimePoints))
	}
	if p.AchievementCount != len(p.Achievements) {
		return shared.NewDomainError("scoring", "CheckInvariants", shared.ErrInvalidState,
			"achievement count does not match achievement list")
	}
	seen := make(map[string]bool, len(p.Achievements))
	for _, a := range p.Achievements {
		if seen[a] {
			return shared.NewDomainError("scoring", "CheckInvariants", shared.ErrInvalidState,
				"duplicate achievement: "+a)
		}
		seen[a] = true
	}
	if p.LevelProgressPercent < 0 || p.LevelProgressPercent > 100 {
		return shared.NewDomainError("scoring", "CheckInvariants", shared.ErrInvalidState,
			"level progress percentage out of range")
	}
	return nil
}

// Clone returns a deep copy of the progress record.
func (p *UserProgress) Clone() *UserProgress {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Achievements = append([]string(nil), p.Achievements...)
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// DELTA
// ══════════════════════════════════════════════════════════════════════════════

// Delta is the atomic increment a ledger row commits to the aggregate.
// Credits raise both current and lifetime points plus one breakdown bucket;
// debits (penalties, negative adjustments) reduce current points only and
// accumulate the penalty counters, keeping lifetime points monotonic.
type Delta struct {
	// Points - signed amount applied to CurrentPoints.
	Points int64

	// Bucket - breakdown bucket credited; BucketNone for debits.
	Bucket Bucket

	// CounterAction - action whose per-action counter is incremented.
	CounterAction Action

	// Penalty - true for debits.
	Penalty bool

	// EarnedAt - stamps LastPointsEarnedAt.
	EarnedAt time.Time
}

// NewDelta derives the aggregate delta for an award of the given action and
// amount.
func NewDelta(action Action, points shared.Points, at time.Time) Delta {
	d := Delta{
		Points:        points.Int64(),
		CounterAction: action,
		EarnedAt:      at,
	}

	if points.IsPositive() {
		d.Bucket = action.Bucket()
	} else {
		// Negative penalty or adjustment: spendable points only.
		d.Bucket = BucketNone
		d.Penalty = true
	}

	return d
}

// LifetimePoints returns the amount added to TotalLifetimePoints (zero for
// debits).
func (d Delta) LifetimePoints() int64 {
	if d.Penalty {
		return 0
	}
	return d.Points
}

// Apply mutates the aggregate in memory. The storage layer performs the
// equivalent update as a single atomic statement; this method is the
// reference semantics used by the in-memory store and by tests.
func (p *UserProgress) Apply(d Delta) {
	p.CurrentPoints += d.Points
	p.TotalLifetimePoints += d.LifetimePoints()

	switch d.Bucket {
	case BucketPurchases:
		p.PointsFromPurchases += d.Points
	case BucketCourses:
		p.PointsFromCourses += d.Points
	case BucketReferrals:
		p.PointsFromReferrals += d.Points
	case BucketActivities:
		p.PointsFromActivities += d.Points
	case BucketBonuses:
		p.PointsFromBonuses += d.Points
	}

	if d.Penalty {
		p.TotalPenalties++
		if d.Points < 0 {
			p.PointsLostToPenalties += -d.Points
		}
	}

	switch d.CounterAction {
	case ActionPurchase:
		p.PurchaseCount++
	case ActionCourseComplete:
		p.CoursesCompleted++
	case ActionReferral:
		p.ReferralCount++
	case ActionReviewWrite:
		p.ReviewCount++
	case ActionWorkshopBooking:
		p.WorkshopCount++
	case ActionSocialShare:
		p.SocialShareCount++
	}

	p.LastPointsEarnedAt = d.EarnedAt
	p.UpdatedAt = d.EarnedAt
	p.RefreshDerived()
}

// String returns a short representation for logging.
func (p *UserProgress) String() string {
	return fmt.Sprintf("UserProgress{User: %s, Lifetime: %d, Level: %d, Streak: %d, Status: %s}",
		p.UserID, p.TotalLifetimePoints, p.Level, p.DailyLoginStreak, p.Status)
}
