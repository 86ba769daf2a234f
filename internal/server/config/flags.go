package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-k string   token signing key
//	-l string   log level
//	-r int      login/register requests per minute per IP
//	-b string   S3 bucket for the audit archive
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-memory     use the in-memory store instead of PostgreSQL
//
// Unrelated arguments (such as -c) are filtered out first with
// flagx.FilterArgs.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args,
		[]string{"-a", "-g", "-d", "-k", "-l", "-r", "-b", "-e"},
		"-memory", "--memory")

	fs := flag.NewFlagSet("authkeeper-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SigningKey, "k", config.SigningKey, "token signing key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.IntVar(&config.RateLimitPerMinute, "r", config.RateLimitPerMinute, "requests per minute per IP on login/register")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket for audit archive")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.BoolVar(&config.UseMemoryStore, "memory", config.UseMemoryStore, "use in-memory store")

	return fs.Parse(args)
}
