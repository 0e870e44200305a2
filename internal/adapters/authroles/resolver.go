package authroles

import (
	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
)

// StaticResolver maps emails to roles using two allow-lists supplied at
// process start. Super-admin wins over admin; everything else is a user.
// Matching is case-sensitive, as stored.
type StaticResolver struct {
	superAdmins map[string]struct{}
	admins      map[string]struct{}
}

// NewStaticResolver builds a resolver from the configured allow-lists.
// Empty entries are ignored.
func NewStaticResolver(superAdmins, admins []string) StaticResolver {
	r := StaticResolver{
		superAdmins: make(map[string]struct{}, len(superAdmins)),
		admins:      make(map[string]struct{}, len(admins)),
	}
	for _, e := range superAdmins {
		if e != "" {
			r.superAdmins[e] = struct{}{}
		}
	}
	for _, e := range admins {
		if e != "" {
			r.admins[e] = struct{}{}
		}
	}
	return r
}

func (r StaticResolver) Resolve(email string) domainauth.Role {
	if _, ok := r.superAdmins[email]; ok {
		return domainauth.RoleSuperAdmin
	}
	if _, ok := r.admins[email]; ok {
		return domainauth.RoleAdmin
	}
	return domainauth.RoleUser
}
