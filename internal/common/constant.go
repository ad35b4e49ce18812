package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// MaxAccountNameLength bounds display names in runes.
const MaxAccountNameLength = 64
