// Package auth provides authentication and authorisation for medrecord.
//
// It implements a 3-role model (admin, doctor, nurse) with:
//   - PBKDF2-HMAC-SHA256 password hashing with a per-hash salt and a
//     self-describing iteration count
//   - Opaque bearer sessions: 256-bit random tokens, stored as SHA-256
//     hashes, expired lazily on lookup
//   - Brute-force lockout: a single atomic UPDATE counts failures and sets
//     locked_until when the threshold is reached
//   - Static role-permission mapping (compile-time, no database lookup)
//   - Care-team grants for object-level access to patient records
//
// Care-team scoping uses a "zero access by default, grant explicitly"
// model: a clinician with no care_team rows cannot open any patient record.
// Admins never see patient records at all.
package auth
