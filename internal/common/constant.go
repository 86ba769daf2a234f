// Package common contains shared constants and sentinel errors used across
// authkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultRole is assigned to accounts registered without an explicit role.
const DefaultRole = "User"

// AdminRole is the role required by admin-only endpoints.
const AdminRole = "Admin"
