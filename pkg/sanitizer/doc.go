// Package sanitizer normalizes free-form input before validation and storage.
//
// All functions are idempotent: applying them twice yields the same result.
// Invalid input degrades to an empty value rather than an error.
//
// Normalization includes:
//   - Names and locations: collapse whitespace, trim
//   - Free text (notes, chat messages): strip control characters, trim
//   - Pseudonyms: collapse whitespace, trim
//   - URLs: enforce HTTPS, lowercase the host, drop utm_ parameters
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
