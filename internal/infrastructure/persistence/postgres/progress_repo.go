package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements scoring.ProgressStore for PostgreSQL. Every
// mutation is a single atomic statement (upsert-with-increment or a
// conditional UPDATE); the record is never read-modified-written, so
// concurrent awards for the same user cannot lose increments.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

const progressColumns = `
	user_id, current_points, total_lifetime_points, level, achievements,
	points_from_purchases, points_from_courses, points_from_referrals,
	points_from_activities, points_from_bonuses,
	total_penalties, points_lost_to_penalties, current_multiplier,
	is_frozen, status,
	daily_login_streak, max_daily_login_streak, total_logins,
	purchase_count, courses_completed, referral_count,
	review_count, workshop_count, social_share_count,
	last_login_at, last_points_earned_at, last_level_up_at, last_achievement_at,
	created_at, updated_at
`

// Get fetches the user's progress record.
func (r *ProgressRepository) Get(ctx context.Context, userID shared.UserID) (*scoring.UserProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1`

	progress, err := r.scanProgress(r.conn.QueryRow(ctx, query, string(userID)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	return progress, nil
}

// ApplyDelta creates the record if missing and commits the delta's
// increments in one upsert, returning the post-increment state.
func (r *ProgressRepository) ApplyDelta(ctx context.Context, userID shared.UserID, delta scoring.Delta) (*scoring.UserProgress, error) {
	return r.applyDeltaOn(ctx, r.conn, userID, delta)
}

// applyDeltaOn runs the upsert through any Querier so the awarder can apply
// the delta inside its transaction.
func (r *ProgressRepository) applyDeltaOn(ctx context.Context, q Querier, userID shared.UserID, delta scoring.Delta) (*scoring.UserProgress, error) {
	inc := newDeltaIncrements(delta)

	query := `
		INSERT INTO user_progress (
			user_id, current_points, total_lifetime_points,
			points_from_purchases, points_from_courses, points_from_referrals,
			points_from_activities, points_from_bonuses,
			total_penalties, points_lost_to_penalties,
			purchase_count, courses_completed, referral_count,
			review_count, workshop_count, social_share_count,
			last_points_earned_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $18
		)
		ON CONFLICT (user_id) DO UPDATE SET
			current_points           = user_progress.current_points + EXCLUDED.current_points,
			total_lifetime_points    = user_progress.total_lifetime_points + EXCLUDED.total_lifetime_points,
			points_from_purchases    = user_progress.points_from_purchases + EXCLUDED.points_from_purchases,
			points_from_courses      = user_progress.points_from_courses + EXCLUDED.points_from_courses,
			points_from_referrals    = user_progress.points_from_referrals + EXCLUDED.points_from_referrals,
			points_from_activities   = user_progress.points_from_activities + EXCLUDED.points_from_activities,
			points_from_bonuses      = user_progress.points_from_bonuses + EXCLUDED.points_from_bonuses,
			total_penalties          = user_progress.total_penalties + EXCLUDED.total_penalties,
			points_lost_to_penalties = user_progress.points_lost_to_penalties + EXCLUDED.points_lost_to_penalties,
			purchase_count           = user_progress.purchase_count + EXCLUDED.purchase_count,
			courses_completed        = user_progress.courses_completed + EXCLUDED.courses_completed,
			referral_count           = user_progress.referral_count + EXCLUDED.referral_count,
			review_count             = user_progress.review_count + EXCLUDED.review_count,
			workshop_count           = user_progress.workshop_count + EXCLUDED.workshop_count,
			social_share_count       = user_progress.social_share_count + EXCLUDED.social_share_count,
			last_points_earned_at    = EXCLUDED.last_points_earned_at,
			updated_at               = EXCLUDED.updated_at
		RETURNING ` + progressColumns

	earnedAt := delta.EarnedAt
	if earnedAt.IsZero() {
		earnedAt = time.Now().UTC()
	}

	row := q.QueryRow(ctx, query,
		string(userID),
		delta.Points,
		delta.LifetimePoints(),
		inc.purchases,
		inc.courses,
		inc.referrals,
		inc.activities,
		inc.bonuses,
		inc.penaltyCount,
		inc.penaltyPoints,
		inc.purchaseCount,
		inc.coursesCompleted,
		inc.referralCount,
		inc.reviewCount,
		inc.workshopCount,
		inc.socialShareCount,
		earnedAt,
		earnedAt,
	)

	progress, err := r.scanProgress(row)
	if err != nil {
		return nil, fmt.Errorf("failed to apply progress delta: %w", err)
	}
	return progress, nil
}

// RaiseLevel sets the stored level to newLevel if it is currently lower.
// The WHERE guard makes concurrent level-ups idempotent: only the award that
// actually crosses the boundary sees a row update.
func (r *ProgressRepository) RaiseLevel(ctx context.Context, userID shared.UserID, newLevel int, at time.Time) (bool, error) {
	result, err := r.conn.Exec(ctx, `
		UPDATE user_progress
		SET level = $2, last_level_up_at = $3, updated_at = $3
		WHERE user_id = $1 AND level < $2
	`, string(userID), newLevel, at)
	if err != nil {
		return false, fmt.Errorf("failed to raise level: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// UnlockAchievements set-unions the ids into the record under a row lock and
// returns the ids that were genuinely new.
func (r *ProgressRepository) UnlockAchievements(ctx context.Context, userID shared.UserID, ids []string, at time.Time) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var added []string
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var current []string
		err := tx.QueryRow(ctx,
			"SELECT achievements FROM user_progress WHERE user_id = $1 FOR UPDATE",
			string(userID),
		).Scan(&current)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrProgressNotFound
			}
			return fmt.Errorf("failed to lock user progress: %w", err)
		}

		have := make(map[string]bool, len(current))
		for _, id := range current {
			have[id] = true
		}

		added = added[:0]
		for _, id := range ids {
			if !have[id] {
				added = append(added, id)
			}
		}
		if len(added) == 0 {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE user_progress
			SET achievements = achievements || $2::text[],
			    last_achievement_at = $3,
			    updated_at = $3
			WHERE user_id = $1
		`, string(userID), added, at)
		if err != nil {
			return fmt.Errorf("failed to unlock achievements: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// RecordLogin claims today's login slot in one upsert. The conflict guard
// compares UTC calendar dates, so a second login the same day updates
// nothing and is reported as already processed.
func (r *ProgressRepository) RecordLogin(ctx context.Context, userID shared.UserID, newStreak int, at time.Time) (*scoring.UserProgress, error) {
	query := `
		INSERT INTO user_progress (
			user_id, daily_login_streak, max_daily_login_streak, total_logins,
			last_login_at, created_at, updated_at
		) VALUES ($1, $2, $2, 1, $3, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			daily_login_streak     = EXCLUDED.daily_login_streak,
			max_daily_login_streak = GREATEST(user_progress.max_daily_login_streak, EXCLUDED.daily_login_streak),
			total_logins           = user_progress.total_logins + 1,
			last_login_at          = EXCLUDED.last_login_at,
			updated_at             = EXCLUDED.updated_at
		WHERE user_progress.last_login_at IS NULL
		   OR (user_progress.last_login_at AT TIME ZONE 'UTC')::date
		      < (EXCLUDED.last_login_at AT TIME ZONE 'UTC')::date
		RETURNING ` + progressColumns

	progress, err := r.scanProgress(r.conn.QueryRow(ctx, query, string(userID), newStreak, at))
	if err != nil {
		if IsNoRows(err) {
			// The conflict guard rejected the claim: today is already taken.
			return nil, shared.ErrAlreadyProcessedToday
		}
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return progress, nil
}

// SetFrozen freezes or unfreezes the record for leaderboard purposes.
func (r *ProgressRepository) SetFrozen(ctx context.Context, userID shared.UserID, frozen bool) error {
	status := scoring.ProgressStatusActive
	if frozen {
		status = scoring.ProgressStatusFrozen
	}

	result, err := r.conn.Exec(ctx, `
		UPDATE user_progress
		SET is_frozen = $2, status = $3, updated_at = $4
		WHERE user_id = $1
	`, string(userID), frozen, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set frozen flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrProgressNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *ProgressRepository) scanProgress(row pgx.Row) (*scoring.UserProgress, error) {
	var (
		p                 scoring.UserProgress
		userID            string
		status            string
		lastLoginAt       *time.Time
		lastPointsAt      *time.Time
		lastLevelUpAt     *time.Time
		lastAchievementAt *time.Time
	)

	err := row.Scan(
		&userID,
		&p.CurrentPoints,
		&p.TotalLifetimePoints,
		&p.Level,
		&p.Achievements,
		&p.PointsFromPurchases,
		&p.PointsFromCourses,
		&p.PointsFromReferrals,
		&p.PointsFromActivities,
		&p.PointsFromBonuses,
		&p.TotalPenalties,
		&p.PointsLostToPenalties,
		&p.CurrentMultiplier,
		&p.IsFrozen,
		&status,
		&p.DailyLoginStreak,
		&p.MaxDailyLoginStreak,
		&p.TotalLogins,
		&p.PurchaseCount,
		&p.CoursesCompleted,
		&p.ReferralCount,
		&p.ReviewCount,
		&p.WorkshopCount,
		&p.SocialShareCount,
		&lastLoginAt,
		&lastPointsAt,
		&lastLevelUpAt,
		&lastAchievementAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.UserID = shared.UserID(userID)
	p.Status = scoring.ProgressStatus(status)
	p.AchievementCount = len(p.Achievements)

	if lastLoginAt != nil {
		p.LastLoginAt = *lastLoginAt
	}
	if lastPointsAt != nil {
		p.LastPointsEarnedAt = *lastPointsAt
	}
	if lastLevelUpAt != nil {
		p.LastLevelUpAt = *lastLevelUpAt
	}
	if lastAchievementAt != nil {
		p.LastAchievementAt = *lastAchievementAt
	}

	p.RefreshDerived()
	return &p, nil
}

// deltaIncrements spreads a domain delta over the aggregate columns.
type deltaIncrements struct {
	purchases, courses, referrals, activities, bonuses int64
	penaltyCount                                       int
	penaltyPoints                                      int64
	purchaseCount, coursesCompleted, referralCount     int
	reviewCount, workshopCount, socialShareCount       int
}

func newDeltaIncrements(d scoring.Delta) deltaIncrements {
	var inc deltaIncrements

	switch d.Bucket {
	case scoring.BucketPurchases:
		inc.purchases = d.Points
	case scoring.BucketCourses:
		inc.courses = d.Points
	case scoring.BucketReferrals:
		inc.referrals = d.Points
	case scoring.BucketActivities:
		inc.activities = d.Points
	case scoring.BucketBonuses:
		inc.bonuses = d.Points
	}

	if d.Penalty {
		inc.penaltyCount = 1
		if d.Points < 0 {
			inc.penaltyPoints = -d.Points
		}
	}

	switch d.CounterAction {
	case scoring.ActionPurchase:
		inc.purchaseCount = 1
	case scoring.ActionCourseComplete:
		inc.coursesCompleted = 1
	case scoring.ActionReferral:
		inc.referralCount = 1
	case scoring.ActionReviewWrite:
		inc.reviewCount = 1
	case scoring.ActionWorkshopBooking:
		inc.workshopCount = 1
	case scoring.ActionSocialShare:
		inc.socialShareCount = 1
	}

	return inc
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTIONAL AWARDER
// ══════════════════════════════════════════════════════════════════════════════

// TxAwarder implements scoring.Awarder over a single database transaction:
// the ledger append, the aggregate delta, and the applied flag commit
// together or not at all. A crash between statements leaves nothing behind;
// a crash after commit leaves a fully consistent state. The applied flag
// only matters for deployments that split the append and the delta across
// calls, but keeping it in the same transaction costs one UPDATE and keeps
// the reconciliation pass honest.
type TxAwarder struct {
	conn     *Connection
	ledger   *LedgerRepository
	progress *ProgressRepository
}

// NewTxAwarder creates a new TxAwarder.
func NewTxAwarder(conn *Connection, ledger *LedgerRepository, progress *ProgressRepository) *TxAwarder {
	return &TxAwarder{conn: conn, ledger: ledger, progress: progress}
}

// Award appends the ledger row and applies its delta atomically. A duplicate
// reference rolls back and returns shared.ErrDuplicateAward with no state
// change.
func (a *TxAwarder) Award(ctx context.Context, txn *scoring.Transaction) (*scoring.UserProgress, error) {
	var progress *scoring.UserProgress

	err := a.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := a.ledger.appendOn(ctx, tx, txn); err != nil {
			return err
		}

		updated, err := a.progress.applyDeltaOn(ctx, tx, txn.UserID, txn.Delta())
		if err != nil {
			return err
		}

		if err := a.ledger.markAppliedOn(ctx, tx, txn.ID); err != nil {
			return err
		}

		progress = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	txn.Applied = true
	return progress, nil
}
