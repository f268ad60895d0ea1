package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: SCORING TRANSACTIONS (the points ledger)
// ══════════════════════════════════════════════════════════════════════════════

// The partial unique index on (user_id, reference_id, reference_type) is the
// sole idempotency guard for awards: a retried external call with the same
// reference collides here and the award path reports a duplicate instead of
// crediting twice. Rows without a reference are exempt.
const migration001Up = `
CREATE TABLE IF NOT EXISTS scoring_transactions (
	id              UUID PRIMARY KEY,
	user_id         TEXT NOT NULL,
	points          BIGINT NOT NULL CHECK (points <> 0),
	action          TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'completed'
	                CHECK (status IN ('pending', 'completed', 'cancelled', 'expired')),
	description     TEXT NOT NULL DEFAULT '',
	metadata        JSONB NOT NULL DEFAULT '{}'::jsonb,
	reference_id    TEXT,
	reference_type  TEXT,
	order_id        TEXT,
	course_id       TEXT,
	applied         BOOLEAN NOT NULL DEFAULT FALSE,
	processed_at    TIMESTAMP WITH TIME ZONE NOT NULL,
	created_at      TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

	CHECK ((reference_id IS NULL) = (reference_type IS NULL))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_reference_once
	ON scoring_transactions (user_id, reference_id, reference_type)
	WHERE status = 'completed' AND reference_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_transactions_user_processed
	ON scoring_transactions (user_id, processed_at DESC);

CREATE INDEX IF NOT EXISTS idx_transactions_unapplied
	ON scoring_transactions (created_at)
	WHERE applied = FALSE AND status = 'completed';
`

const migration001Down = `
DROP TABLE IF EXISTS scoring_transactions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: USER PROGRESS (the per-user aggregate)
// ══════════════════════════════════════════════════════════════════════════════

// total_lifetime_points only ever grows; the breakdown buckets must sum to it.
// current_points may be driven negative by penalties. achievements is kept as
// a text array so unlocks are a single set-union UPDATE.
const migration002Up = `
CREATE TABLE IF NOT EXISTS user_progress (
	user_id                  TEXT PRIMARY KEY,
	current_points           BIGINT NOT NULL DEFAULT 0,
	total_lifetime_points    BIGINT NOT NULL DEFAULT 0 CHECK (total_lifetime_points >= 0),
	level                    INTEGER NOT NULL DEFAULT 1 CHECK (level >= 1),
	achievements             TEXT[] NOT NULL DEFAULT '{}',
	points_from_purchases    BIGINT NOT NULL DEFAULT 0 CHECK (points_from_purchases >= 0),
	points_from_courses      BIGINT NOT NULL DEFAULT 0 CHECK (points_from_courses >= 0),
	points_from_referrals    BIGINT NOT NULL DEFAULT 0 CHECK (points_from_referrals >= 0),
	points_from_activities   BIGINT NOT NULL DEFAULT 0 CHECK (points_from_activities >= 0),
	points_from_bonuses      BIGINT NOT NULL DEFAULT 0 CHECK (points_from_bonuses >= 0),
	total_penalties          INTEGER NOT NULL DEFAULT 0 CHECK (total_penalties >= 0),
	points_lost_to_penalties BIGINT NOT NULL DEFAULT 0 CHECK (points_lost_to_penalties >= 0),
	current_multiplier       DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	is_frozen                BOOLEAN NOT NULL DEFAULT FALSE,
	status                   TEXT NOT NULL DEFAULT 'active'
	                         CHECK (status IN ('active', 'frozen', 'penalty')),
	daily_login_streak       INTEGER NOT NULL DEFAULT 0 CHECK (daily_login_streak >= 0),
	max_daily_login_streak   INTEGER NOT NULL DEFAULT 0 CHECK (max_daily_login_streak >= 0),
	total_logins             INTEGER NOT NULL DEFAULT 0 CHECK (total_logins >= 0),
	purchase_count           INTEGER NOT NULL DEFAULT 0,
	courses_completed        INTEGER NOT NULL DEFAULT 0,
	referral_count           INTEGER NOT NULL DEFAULT 0,
	review_count             INTEGER NOT NULL DEFAULT 0,
	workshop_count           INTEGER NOT NULL DEFAULT 0,
	social_share_count       INTEGER NOT NULL DEFAULT 0,
	last_login_at            TIMESTAMP WITH TIME ZONE,
	last_points_earned_at    TIMESTAMP WITH TIME ZONE,
	last_level_up_at         TIMESTAMP WITH TIME ZONE,
	last_achievement_at      TIMESTAMP WITH TIME ZONE,
	created_at               TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at               TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

	CHECK (points_from_purchases + points_from_courses + points_from_referrals
	       + points_from_activities + points_from_bonuses = total_lifetime_points)
);
`

const migration002Down = `
DROP TABLE IF EXISTS user_progress;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: LEADERBOARD INDEXES
// ══════════════════════════════════════════════════════════════════════════════

// The composite index matches the rank ordering exactly
// (lifetime DESC, level DESC, current DESC, user_id ASC) so page and rank
// queries are index scans even at large user counts.
const migration003Up = `
CREATE INDEX IF NOT EXISTS idx_progress_rank
	ON user_progress (total_lifetime_points DESC, level DESC, current_points DESC, user_id ASC)
	WHERE is_frozen = FALSE AND status = 'active';

CREATE INDEX IF NOT EXISTS idx_progress_level
	ON user_progress (level DESC);
`

const migration003Down = `
DROP INDEX IF EXISTS idx_progress_rank;
DROP INDEX IF EXISTS idx_progress_level;
`
