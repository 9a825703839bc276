// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package history enforces password-change rules against an account's
// previous passwords.
//
// Previous passwords are stored only as argon2id hashes. A change is
// rejected when the new password is weak, similar to the current one,
// known to be exposed, or matches one of the last Depth stored hashes.
//
// The PostgreSQL Repository lives in the postgres subpackage; its schema is
// applied by Migrator from the embedded migrations directory.
package history
