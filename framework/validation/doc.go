// Package validation checks flat string maps against pipe-separated rules.
//
// # Basic Usage
//
//	v := validation.Make(map[string]string{
//	    "tmdb_api_key": cfg.Credentials.TmdbAPIKey,
//	    "io_pool_size": "8",
//	}, validation.Rules{
//	    "tmdb_api_key": "required|alpha_num",
//	    "io_pool_size": "integer|gte:1|lte:256",
//	})
//
//	if v.Fails() {
//	    return v.Errors() // *Errors implements error
//	}
//
// # Available Rules
//
//   - required       present and non-blank
//   - nullable       an empty value skips the remaining rules
//   - min:n, max:n   length bounds in UTF-8 characters
//   - alpha_num      letters and numbers [a-zA-Z0-9]
//   - alpha_dash     letters, numbers, dashes, underscores
//   - regex:pattern  must match the pattern (no '|' allowed inside)
//   - url            starts with http:// or https://
//   - numeric, integer
//   - gte:n, lte:n   numeric bounds
//   - in:a,b,c       one of the listed values
//
// Processing of a field stops at its first failing rule.
package validation
