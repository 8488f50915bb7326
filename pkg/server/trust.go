package server

import "net"

// TrustFunc decides whether the caller identified by a remote address
// is allowed to edit captions. The core only depends on the boolean
// outcome; hosts substitute their own notion of identity.
type TrustFunc func(remoteAddr string) bool

// Loopback trusts callers connecting from a loopback address.
func Loopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
