// Package common contains shared constants and sentinel errors used across
// gophcontacts components.
package common

const (
	// AccessTokenHeaderName is the gRPC metadata key used to carry the
	// access token on outbound requests.
	AccessTokenHeaderName = "access_token"

	// ContactsCollection is the logical collection holding contact documents.
	ContactsCollection = "contacts"

	// DefaultPrefixLimit bounds each of the two prefix queries.
	DefaultPrefixLimit = 10
)
