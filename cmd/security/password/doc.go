// Package password provides Argon2id password hashing for lablink.
//
// Hashes use a PHC-style encoded string and are treated as untrusted input
// during verification: strict decoding plus anti-DoS parameter bounds keep
// attacker-supplied hash strings from driving pathological memory usage.
//
// Cost parameters and the length policy are environment-tunable
// (LABLINK_ARGON2_* / LABLINK_PASSWORD_*).
package password
