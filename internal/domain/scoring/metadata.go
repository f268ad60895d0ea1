package scoring

// Typed metadata variants, one per action family, so the achievement
// evaluator can pattern-match on concrete fields instead of probing an
// untyped map. The map form exists only at the storage boundary.

// MetadataKind tags the concrete metadata variant.
type MetadataKind string

const (
	MetadataKindPurchase   MetadataKind = "purchase"
	MetadataKindCourse     MetadataKind = "course"
	MetadataKindLogin      MetadataKind = "login"
	MetadataKindReferral   MetadataKind = "referral"
	MetadataKindProfile    MetadataKind = "profile"
	MetadataKindMembership MetadataKind = "membership"
	MetadataKindAdjustment MetadataKind = "adjustment"
	MetadataKindGeneric    MetadataKind = "generic"
)

// Metadata is the tagged payload attached to a ledger row.
type Metadata interface {
	// Kind returns the variant tag.
	Kind() MetadataKind

	// Attributes returns the payload as a flat map for storage.
	Attributes() map[string]interface{}
}

// PurchaseMetadata accompanies purchase awards.
type PurchaseMetadata struct {
	// OrderID - the order that triggered the award.
	OrderID string

	// AmountCents - the monetary order total, in minor units.
	AmountCents int64
}

func (m PurchaseMetadata) Kind() MetadataKind { return MetadataKindPurchase }

func (m PurchaseMetadata) Attributes() map[string]interface{} {
	return map[string]interface{}{"order_id": m.OrderID, "amount_cents": m.AmountCents}
}

// CourseMetadata accompanies course-completion awards.
type CourseMetadata struct {
	// CourseID - the completed course.
	CourseID string

	// CompletedLessons - lessons finished in the course.
	CompletedLessons int
}

func (m CourseMetadata) Kind() MetadataKind { return MetadataKindCourse }

func (m CourseMetadata) Attributes() map[string]interface{} {
	return map[string]interface{}{"course_id": m.CourseID, "completed_lessons": m.CompletedLessons}
}

// LoginMetadata accompanies daily-login awards and carries the streak length
// computed by the login processor, which the streak achievement rules read.
type LoginMetadata struct {
	// Streak - consecutive-day streak length including today.
	Streak int

	// Device - client device identifier, if known.
	Device string
}

func (m LoginMetadata) Kind() MetadataKind { return MetadataKindLogin }

func (m LoginMetadata) Attributes() map[string]interface{} {
	return map[string]interface{}{"streak": m.Streak, "device": m.Device}
}

// ReferralMetadata accompanies referral awards.
type ReferralMetadata struct {
	// ReferredUserID - the user who completed registration.
	ReferredUserID string
}

func (m ReferralMetadata) Kind() MetadataKind { return MetadataKindReferral }

func (m ReferralMetadata) Attributes() map[string]interface{} {
	return map[string]interface{}{"referred_user_id": m.ReferredUserID}
}

// ProfileMetadata accompanies profile-completion awards. The completion
// percentage is computed by the profile subsystem; the evaluator only
// compares it against the rule target.
type ProfileMetadata struct {
	// CompletionPercent - profile completion in [0,100].
	CompletionPercent int
}

func (m ProfileMetadata) Kind() MetadataKind { return MetadataKindProfile }

func (m ProfileMetadata) Attributes() map[string]interface{} {
	return map[string]interface{}{"completion_percent": m.CompletionPercent}
}

// MembershipMetadata carries caller-computed account-age information used by
// duration achievement rules.
type MembershipMetadata struct {
	// ActiveDays - days since account creation.
	ActiveDays int
}

func (m MembershipMetadata) Kind() MetadataKind { return MetadataKindMembership }

func (m MembershipMetadata) Attributes() map[string]interface{} {
	return map[string]interface{}{"active_days": m.ActiveDays}
}

// AdjustmentMetadata accompanies penalties and manual adjustments.
type AdjustmentMetadata struct {
	// Reason - why the adjustment was made.
	Reason string

	// AdjustedBy - operator or system identity that issued it.
	AdjustedBy string
}

func (m AdjustmentMetadata) Kind() MetadataKind { return MetadataKindAdjustment }

func (m AdjustmentMetadata) Attributes() map[string]interface{} {
	return map[string]interface{}{"reason": m.Reason, "adjusted_by": m.AdjustedBy}
}

// GenericMetadata holds free-form attributes for actions that need none of
// the typed variants (bonus campaigns, social shares).
type GenericMetadata map[string]interface{}

func (m GenericMetadata) Kind() MetadataKind { return MetadataKindGeneric }

func (m GenericMetadata) Attributes() map[string]interface{} {
	return map[string]interface{}(m)
}

// EncodeMetadata flattens a metadata variant into a map for jsonb storage.
// The variant tag travels under the "kind" key.
func EncodeMetadata(m Metadata) map[string]interface{} {
	if m == nil {
		return nil
	}
	attrs := m.Attributes()
	out := make(map[string]interface{}, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	out["kind"] = string(m.Kind())
	return out
}

// DecodeMetadata rebuilds the typed variant from its stored map form.
// Unknown or untagged payloads decode as GenericMetadata.
func DecodeMetadata(raw map[string]interface{}) Metadata {
	if raw == nil {
		return nil
	}

	kind, _ := raw["kind"].(string)
	switch MetadataKind(kind) {
	case MetadataKindPurchase:
		return PurchaseMetadata{
			OrderID:     asString(raw["order_id"]),
			AmountCents: asInt64(raw["amount_cents"]),
		}
	case MetadataKindCourse:
		return CourseMetadata{
			CourseID:         asString(raw["course_id"]),
			CompletedLessons: int(asInt64(raw["completed_lessons"])),
		}
	case MetadataKindLogin:
		return LoginMetadata{
			Streak: int(asInt64(raw["streak"])),
			Device: asString(raw["device"]),
		}
	case MetadataKindReferral:
		return ReferralMetadata{ReferredUserID: asString(raw["referred_user_id"])}
	case MetadataKindProfile:
		return ProfileMetadata{CompletionPercent: int(asInt64(raw["completion_percent"]))}
	case MetadataKindMembership:
		return MembershipMetadata{ActiveDays: int(asInt64(raw["active_days"]))}
	case MetadataKindAdjustment:
		return AdjustmentMetadata{
			Reason:     asString(raw["reason"]),
			AdjustedBy: asString(raw["adjusted_by"]),
		}
	default:
		generic := make(GenericMetadata, len(raw))
		for k, v := range raw {
			if k == "kind" {
				continue
			}
			generic[k] = v
		}
		return generic
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// asInt64 tolerates the numeric types json.Unmarshal and pgx produce.
func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
