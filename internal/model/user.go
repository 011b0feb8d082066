package model

import "time"

// Roles carried in the users.role column and in the JWT "role" claim.
const (
    RoleAdmin         = "ADMIN"
    RoleManager       = "MANAGER"
    RoleEmployee      = "EMPLOYEE"
    RoleProjectionist = "PROJECTIONIST"
    RoleCustomer      = "CUSTOMER"
)

// StaffRoles are the roles an admin may hand out through the admin API.
var StaffRoles = []string{RoleAdmin, RoleManager, RoleEmployee, RoleProjectionist}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
    switch r {
    case RoleAdmin, RoleManager, RoleEmployee, RoleProjectionist, RoleCustomer:
        return true
    }
    return false
}

// User represents an application user record as stored in the
// `users` table.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, lower-cased email address.
//  FullName     – display name (from sign-up or the Google profile).
//  Phone        – optional contact number, shown for cluster managers.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of the Role* constants.
//  IsActive     – whether the account may sign in.
type User struct {
    ID           uint64    `json:"id"`
    Email        string    `json:"email"`
    FullName     string    `json:"full_name"`
    Phone        string    `json:"phone,omitempty"`
    PasswordHash string    `json:"-"`
    Role         string    `json:"role"`
    IsActive     bool      `json:"is_active"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token value is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
