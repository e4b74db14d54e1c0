package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string    HTTP bind address (e.g., ":8080")
//	-d string    PostgreSQL DSN
//	-s string    JWT HMAC secret key
//	-t int       session token validity, days
//	-gc string   Google OAuth client ID (ID token audience)
//	-ab string   Apple bundle ID (ID token audience)
//	-i string    invite link base URL
//	-u string    S3 root user
//	-p string    S3 root password
//	-b string    S3 bucket name
//	-g string    S3 region
//	-e string    S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Token validity is accepted as an integer day count and converted to a
//     time.Duration.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-gc", "-ab", "-i", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidityDays := fs.Int("t", int(config.TokenValidity.Hours()/24), "session token validity (in days)")

	fs.StringVar(&config.GoogleClientID, "gc", config.GoogleClientID, "Google OAuth client ID")
	fs.StringVar(&config.AppleBundleID, "ab", config.AppleBundleID, "Apple bundle ID")
	fs.StringVar(&config.InviteBaseURL, "i", config.InviteBaseURL, "invite link base URL")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidity = time.Duration(*tokenValidityDays) * 24 * time.Hour
}
