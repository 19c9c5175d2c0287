// Package acl is the anti-corruption layer between Mnemosyne and upstream
// quote providers.
//
// Provider payloads are decoded into wire types private to this package and
// translated into domain drafts at the boundary. Provider failures always
// surface as domain errors:
//
//	HTTP 404        -> domain.NotFoundError
//	HTTP 400, 422   -> domain.ValidationError
//	HTTP 429, 5xx   -> domain.UnavailableError
//	other 4xx       -> domain.UnavailableError
//	circuit open    -> domain.UnavailableError
//	bad payload     -> domain.UnavailableError
//
// [QuoteClient] implements ports.QuoteSource against the quotable API and
// registers as an optional readiness check.
package acl
