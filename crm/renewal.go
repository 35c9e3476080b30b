package crm

import (
	"sort"
)

// DefaultDashboardWindow is the look-ahead used for the dashboard's
// "renewals due" count.
const DefaultDashboardWindow = 30

// SelectDue returns every policy whose expiry d satisfies
// today <= d <= today+windowDays. Policies without a parseable expiry are
// left out. The input is not modified and its order is preserved.
func SelectDue(policies []PolicyView, windowDays int, today Date) []PolicyView {
	due := []PolicyView{}
	if windowDays < 0 {
		return due
	}

	until := today.AddDays(windowDays)
	for _, p := range policies {
		expiry, ok := p.Expiry()
		if !ok {
			continue
		}
		if expiry.Between(today, until) {
			due = append(due, p)
		}
	}
	return due
}

// SortByExpiry orders policies by expiry date, earliest first. Unparseable
// expiries sort last; ties break on policy ID.
func SortByExpiry(policies []PolicyView) {
	sort.SliceStable(policies, func(i, j int) bool {
		di, oki := policies[i].Expiry()
		dj, okj := policies[j].Expiry()
		switch {
		case oki && !okj:
			return true
		case !oki && okj:
			return false
		case oki && okj && !di.Equal(dj):
			return di.Before(dj)
		}
		return policies[i].ID < policies[j].ID
	})
}
