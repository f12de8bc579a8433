package service

import "context"

// AccessClaims is the authorization payload embedded in an access token.
type AccessClaims struct {
	Roles       []string
	Permissions []string
}

// ClaimsResolver supplies the roles and permissions for a user at token
// minting time. Implementations may consult a policy store; the static
// resolver below is the default until one exists.
type ClaimsResolver interface {
	ResolveClaims(ctx context.Context, userID string) (AccessClaims, error)
}

// StaticClaimsResolver grants the same claim set to every user.
type StaticClaimsResolver struct {
	Claims AccessClaims
}

func NewStaticClaimsResolver() *StaticClaimsResolver {
	return &StaticClaimsResolver{
		Claims: AccessClaims{
			Roles:       []string{"admin", "moderator"},
			Permissions: []string{"read_user"},
		},
	}
}

func (r *StaticClaimsResolver) ResolveClaims(_ context.Context, _ string) (AccessClaims, error) {
	return r.Claims, nil
}
