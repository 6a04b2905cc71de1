// Package cookie provides signed HTTP cookies for the session transport.
//
// Values are HMAC-SHA256 signed with the first configured secret and
// verified against every configured secret, so secrets can rotate without
// invalidating live sessions.
package cookie
