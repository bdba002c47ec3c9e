// Package hash provides one-way hashing behind the Hash interface.
//
// Password digests use Bcrypt or Argon2id; HMACSHA256 is deterministic and
// is used to sign opaque values such as session identifiers.
package hash
