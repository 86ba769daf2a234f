// Package cli implements the authkeeper command-line client.
//
// Usage:
//
//	authkeeper [-a addr] [-t seconds] [-f tokenfile] register
//	authkeeper [-a addr] [-t seconds] [-f tokenfile] login
//	authkeeper [-a addr] [-t seconds] [-f tokenfile] profile
//	authkeeper logout
//
// register and login prompt for their fields and save the returned token to
// the token file; profile sends that token to the server.
package cli
