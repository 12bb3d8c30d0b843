// Package secret expands environment references in configuration values so
// credentials such as API tokens stay out of config files.
//
//	[headers]
//	Authorization = "Bearer ${API_TOKEN}"
//
// Expansion is strict: a ${VAR} reference to an unset variable is an error
// rather than an empty string. Use $$ for a literal dollar sign.
package secret
