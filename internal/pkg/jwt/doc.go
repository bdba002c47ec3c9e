// Package jwt issues and verifies the member access tokens (HS512) and
// carries verified claims through the request context.
package jwt
