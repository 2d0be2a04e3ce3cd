// Package auth is the authentication and authorization core of the CRM.
//
// It provides:
//   - Hasher: argon2id password hashing and verification
//   - TokenCodec: HS256 access tokens naming a user id, with expiry
//   - TokenStore: persistence of the current token between invocations
//   - HasPermission / IsOwner: the role and ownership predicates
//   - Guard: the gate run before every protected service operation
//
// A protected call flows store → codec → user lookup → permission →
// ownership → handler; any failure stops the flow and returns a
// *common.Error without running the handler.
package auth
