package model

import "time"

// User represents an application user record as stored in the
// `users` table. The json tags are omitted here because these structs
// are used by the repository and service layers; handlers define
// separate response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – contact address, not unique.
//  PasswordHash – bcrypt hashed password.
//  Profile      – free-form profile fields editable via /auth/me.
//  IsAdmin      – grants catalog mutation and moderation rights.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Profile      Profile   // users.first_name .. users.avatar
	IsAdmin      bool      // users.is_admin
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Profile groups the mutable profile columns of a user.
type Profile struct {
	FirstName  string
	LastName   string
	Bio        string
	Work       string
	Education  string
	Profession string
	City       string
	Avatar     string // reference (URL or storage path) to the avatar image
}

// ProfilePatch carries a partial profile update. Nil fields are left
// unchanged.
type ProfilePatch struct {
	FirstName  *string
	LastName   *string
	Bio        *string
	Work       *string
	Education  *string
	Profession *string
	City       *string
	Avatar     *string
}

// Apply returns a copy of p with every non-nil patch field applied.
func (pp ProfilePatch) Apply(p Profile) Profile {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.FirstName, pp.FirstName)
	set(&p.LastName, pp.LastName)
	set(&p.Bio, pp.Bio)
	set(&p.Work, pp.Work)
	set(&p.Education, pp.Education)
	set(&p.Profession, pp.Profession)
	set(&p.City, pp.City)
	set(&p.Avatar, pp.Avatar)
	return p
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation. The plain token is not stored; only its
// SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Principal is the authenticated caller of a request. It is passed
// explicitly to every operation that depends on identity.
type Principal struct {
	UserID  uint64
	IsAdmin bool
}

// Role names carried in the access token's role claim.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Role returns the token role for the principal.
func (p Principal) Role() string {
	if p.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// CanModify reports whether the principal may change a record owned by ownerID.
func (p Principal) CanModify(ownerID uint64) bool {
	return p.IsAdmin || p.UserID == ownerID
}
