package jwt

import "github.com/golang-jwt/jwt"

// Role is the closed set of participant roles recognized by the realtime layer.
type Role string

const (
	// RoleAnonymous is the role of a connection that has not authenticated.
	RoleAnonymous Role = "anonymous"

	// RoleUser is a signed-in storefront customer.
	RoleUser Role = "user"

	// RoleAdmin is a back-office operator with access to the admin channel.
	RoleAdmin Role = "admin"
)

// Identity is the result of verifying a credential token: the principal the
// rest of the system trusts. The realtime core treats token verification as a
// black box and only ever sees this struct.
type Identity struct {
	// UID is the unique identifier of the account the token was issued to.
	UID string `json:"uid"`

	// Role is the role claim carried by the token.
	Role Role `json:"role"`
}

// Claims defines the JWT claim structure issued by the surrounding backend.
// Standard claims (Exp, Iat, Iss) are embedded for validity checks.
type Claims struct {
	jwt.StandardClaims

	// UID is the account identifier.
	UID string `json:"uid"`

	// Role is the participant role ("user" or "admin").
	Role string `json:"role"`
}
