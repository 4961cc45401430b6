// Package uidhash hashes card UIDs for storage in an allowlist.
//
// A UID is never stored in clear. The allowlist holds
// hex(HMAC-SHA256(secret, uid)) and membership is tested in constant time,
// so a leaked allowlist does not reveal the cards it admits without the
// secret.
package uidhash
