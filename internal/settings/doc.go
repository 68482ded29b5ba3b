// Package settings loads command-line and dev-server configuration from defaults, an
// optional config file, a .env file and CAMPUS_* environment variables, in increasing
// order of precedence.
package settings
