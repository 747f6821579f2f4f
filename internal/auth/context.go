package auth

import "context"

type ownerIDKey struct{}

// WithOwnerID stores the id of the logged user in ctx.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey{}, ownerID)
}

func OwnerIDFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerIDKey{}).(string)
	if !ok || ownerID == "" {
		return "", false
	}
	return ownerID, true
}
