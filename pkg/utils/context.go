package utils

import "context"

type contextKey string

const PrincipalKey contextKey = "principal"

// Principal is the authenticated operator behind an admin request.
type Principal struct {
	Subject string
	Role    string
	Email   string
}

func SetPrincipalContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func GetPrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}

// ActorFromContext names the caller for audit entries.
func ActorFromContext(ctx context.Context) string {
	if p, ok := GetPrincipalFromContext(ctx); ok && p.Subject != "" {
		return p.Subject
	}
	return "system"
}
