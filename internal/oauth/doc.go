// Package oauth implements the Dremio Cloud OAuth2 login: the PKCE
// authorization-code flow through the user's browser with a localhost
// callback, plus refresh-token exchange and access-token expiry
// tracking.
package oauth
