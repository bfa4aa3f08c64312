// Package authz decides which operator roles may run which admin operations.
package authz

type Permission string

const (
	BookingRead       Permission = "booking.read"
	ReconciliationRun Permission = "reconciliation.run"
	WebhookReplay     Permission = "webhook.replay"
	CheckoutReap      Permission = "checkout.reap"
)

type Policy interface {
	Allowed(role string, perm Permission) bool
}

// RolePolicy grants permissions per role, loaded from configuration.
type RolePolicy struct {
	grants map[string]map[Permission]struct{}
}

func NewRolePolicy(roles map[string][]string) *RolePolicy {
	grants := make(map[string]map[Permission]struct{}, len(roles))
	for role, perms := range roles {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[Permission(p)] = struct{}{}
		}
		grants[role] = set
	}
	return &RolePolicy{grants: grants}
}

func (p *RolePolicy) Allowed(role string, perm Permission) bool {
	if role == "" {
		return false
	}
	_, ok := p.grants[role][perm]
	return ok
}
