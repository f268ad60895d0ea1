package scoring

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

func TestNewTransaction(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	txn, err := NewTransaction(NewTransactionParams{
		ID:          uuid.NewString(),
		UserID:      "user-1",
		Points:      50,
		Action:      ActionPurchase,
		Description: "  Order #42  ",
		Metadata:    PurchaseMetadata{OrderID: "o-42", AmountCents: 4990},
		Reference:   Reference{ID: "o-42", Type: "order"},
		OrderID:     "o-42",
		Now:         now,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, txn.Status)
	assert.Equal(t, "Order #42", txn.Description)
	assert.False(t, txn.Applied)
	assert.Equal(t, now, txn.ProcessedAt)
	assert.True(t, txn.IsCredit())
}

func TestNewTransaction_Validation(t *testing.T) {
	base := NewTransactionParams{
		ID:     uuid.NewString(),
		UserID: "user-1",
		Points: 50,
		Action: ActionPurchase,
	}

	missing := base
	missing.ID = ""
	_, err := NewTransaction(missing)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	badUser := base
	badUser.UserID = "!!!"
	_, err = NewTransaction(badUser)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	badAction := base
	badAction.Action = "teleport"
	_, err = NewTransaction(badAction)
	assert.ErrorIs(t, err, shared.ErrInvalidAction)

	halfRef := base
	halfRef.Reference = Reference{ID: "o-42"}
	_, err = NewTransaction(halfRef)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestValidatePoints(t *testing.T) {
	assert.ErrorIs(t, ValidatePoints(ActionPurchase, 0), shared.ErrInvalidPoints)

	assert.NoError(t, ValidatePoints(ActionPurchase, 50))
	assert.Error(t, ValidatePoints(ActionPurchase, -50))

	assert.NoError(t, ValidatePoints(ActionPenalty, -25))
	assert.Error(t, ValidatePoints(ActionPenalty, 25))

	// Adjustments may go either way.
	assert.NoError(t, ValidatePoints(ActionManualAdjustment, 10))
	assert.NoError(t, ValidatePoints(ActionManualAdjustment, -10))
}

func TestActionBuckets(t *testing.T) {
	assert.Equal(t, BucketPurchases, ActionPurchase.Bucket())
	assert.Equal(t, BucketCourses, ActionCourseComplete.Bucket())
	assert.Equal(t, BucketReferrals, ActionReferral.Bucket())
	assert.Equal(t, BucketActivities, ActionDailyLogin.Bucket())
	assert.Equal(t, BucketActivities, ActionWorkshopBooking.Bucket())
	assert.Equal(t, BucketActivities, ActionReviewWrite.Bucket())
	assert.Equal(t, BucketActivities, ActionProfileComplete.Bucket())
	assert.Equal(t, BucketActivities, ActionSocialShare.Bucket())
	assert.Equal(t, BucketBonuses, ActionBonus.Bucket())
	assert.Equal(t, BucketBonuses, ActionManualAdjustment.Bucket())
	assert.Equal(t, BucketNone, ActionPenalty.Bucket())
}

func TestReference(t *testing.T) {
	assert.True(t, Reference{}.IsZero())
	assert.True(t, Reference{}.IsValid())
	assert.True(t, Reference{ID: "o-1", Type: "order"}.IsValid())
	assert.False(t, Reference{ID: "o-1"}.IsValid())
	assert.False(t, Reference{Type: "order"}.IsValid())
	assert.Equal(t, "order:o-1", Reference{ID: "o-1", Type: "order"}.String())
}

func TestMetadataRoundTrip(t *testing.T) {
	encoded := EncodeMetadata(PurchaseMetadata{OrderID: "o-1", AmountCents: 1500})
	assert.Equal(t, "purchase", encoded["kind"])

	decoded := DecodeMetadata(encoded)
	purchase, ok := decoded.(PurchaseMetadata)
	require.True(t, ok)
	assert.Equal(t, "o-1", purchase.OrderID)
	assert.Equal(t, int64(1500), purchase.AmountCents)
}

func TestDecodeMetadata_UnknownKindFallsBackToGeneric(t *testing.T) {
	decoded := DecodeMetadata(map[string]interface{}{
		"kind":     "mystery",
		"campaign": "spring",
	})

	generic, ok := decoded.(GenericMetadata)
	require.True(t, ok)
	assert.Equal(t, "spring", generic["campaign"])
	_, hasKind := generic["kind"]
	assert.False(t, hasKind)
}

func TestDecodeMetadata_ToleratesJSONNumbers(t *testing.T) {
	// json.Unmarshal produces float64 for numbers.
	decoded := DecodeMetadata(map[string]interface{}{
		"kind":   "login",
		"streak": float64(7),
		"device": "ios",
	})

	login, ok := decoded.(LoginMetadata)
	require.True(t, ok)
	assert.Equal(t, 7, login.Streak)
}
