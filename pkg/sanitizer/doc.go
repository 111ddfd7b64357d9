// Package sanitizer normalizes user supplied values before validation and storage.
//
// All functions are idempotent and never fail: input that cannot be normalized
// comes back empty (phones) or trimmed (everything else) so the validator can
// report it.
//
// Normalization includes:
//   - Names and addresses: collapse whitespace, trim
//   - Codes (IATA, currency, country): trim, upper case, letters only
//   - Emails: trim, lower case
//   - Phone numbers: E.164 via libphonenumber
//   - Slices: drop duplicates and empty values after normalization
package sanitizer
