package crm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/renewal-crm/crm"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) crm.Date {
	return crm.NewDate(year, month, day)
}

func policy(id int64, name, phone, no, expiry string) crm.PolicyView {
	return crm.PolicyView{
		Policy: crm.Policy{
			ID:         crm.PolicyID(id),
			ClientID:   crm.ClientID(id),
			PolicyNo:   no,
			Insurer:    "Acme",
			PolicyType: "Motor",
			IssuedDate: "2024-01-01",
			ExpiryDate: expiry,
			Status:     crm.StatusActive,
		},
		ClientName:  name,
		ClientPhone: phone,
	}
}

func policyNos(ps []crm.PolicyView) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.PolicyNo
	}
	return out
}

// =============================================================================
// SELECT DUE
// =============================================================================

func TestSelectDue_WindowIsInclusiveOnBothEnds(t *testing.T) {
	// GIVEN: today is 2025-01-01 and a 30 day window
	today := date(2025, time.January, 1)
	policies := []crm.PolicyView{
		policy(1, "A", "+1", "yesterday", "2024-12-31"),
		policy(2, "B", "+2", "today", "2025-01-01"),
		policy(3, "C", "+3", "mid", "2025-01-15"),
		policy(4, "D", "+4", "last", "2025-01-31"),
		policy(5, "E", "+5", "after", "2025-02-01"),
	}

	// WHEN: selecting
	due := crm.SelectDue(policies, 30, today)

	// THEN: today and today+30 are both in, the neighbours are out
	assert.Equal(t, []string{"today", "mid", "last"}, policyNos(due))
}

func TestSelectDue_ZeroWindowSelectsOnlyToday(t *testing.T) {
	today := date(2025, time.March, 5)
	policies := []crm.PolicyView{
		policy(1, "A", "+1", "P1", "2025-03-05"),
		policy(2, "B", "+2", "P2", "2025-03-06"),
	}

	due := crm.SelectDue(policies, 0, today)

	assert.Equal(t, []string{"P1"}, policyNos(due))
}

func TestSelectDue_SkipsUnparseableExpiry(t *testing.T) {
	// GIVEN: one policy with a free-text expiry and one with none
	today := date(2025, time.January, 1)
	policies := []crm.PolicyView{
		policy(1, "A", "+1", "bad", "next spring"),
		policy(2, "B", "+2", "empty", ""),
		policy(3, "C", "+3", "good", "2025-01-10"),
	}

	// WHEN: selecting with a wide window
	due := crm.SelectDue(policies, 365, today)

	// THEN: only the parseable one is returned, without error
	assert.Equal(t, []string{"good"}, policyNos(due))
}

func TestSelectDue_EmptyInputGivesEmptyNonNilResult(t *testing.T) {
	due := crm.SelectDue(nil, 30, date(2025, time.January, 1))

	assert.NotNil(t, due)
	assert.Empty(t, due)
}

func TestSelectDue_NegativeWindowSelectsNothing(t *testing.T) {
	policies := []crm.PolicyView{policy(1, "A", "+1", "P1", "2025-01-01")}

	due := crm.SelectDue(policies, -1, date(2025, time.January, 1))

	assert.Empty(t, due)
}

func TestSelectDue_PreservesInputOrderAndDoesNotMutate(t *testing.T) {
	today := date(2025, time.January, 1)
	policies := []crm.PolicyView{
		policy(1, "A", "+1", "late", "2025-01-20"),
		policy(2, "B", "+2", "early", "2025-01-02"),
	}

	due := crm.SelectDue(policies, 30, today)

	assert.Equal(t, []string{"late", "early"}, policyNos(due))
	assert.Equal(t, "late", policies[0].PolicyNo)
}

func TestSortByExpiry_EarliestFirstUnparseableLast(t *testing.T) {
	policies := []crm.PolicyView{
		policy(3, "C", "+3", "bad", "??"),
		policy(2, "B", "+2", "late", "2025-02-01"),
		policy(4, "D", "+4", "early-b", "2025-01-01"),
		policy(1, "A", "+1", "early-a", "2025-01-01"),
	}

	crm.SortByExpiry(policies)

	assert.Equal(t, []string{"early-a", "early-b", "late", "bad"}, policyNos(policies))
}
