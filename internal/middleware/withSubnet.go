package middleware

import (
	"net"
	"net/http"
)

// WithSubnet lets through only clients whose address lies in the CIDR
// subnet. The address is taken from X-Real-IP, falling back to the peer
// address. An empty or malformed subnet forbids everybody.
func WithSubnet(subnet string) func(next http.Handler) http.Handler {
	_, trusted, err := net.ParseCIDR(subnet)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err != nil {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			ip := net.ParseIP(r.Header.Get("X-Real-IP"))
			if ip == nil {
				if host, _, splitErr := net.SplitHostPort(r.RemoteAddr); splitErr == nil {
					ip = net.ParseIP(host)
				}
			}

			if ip == nil || !trusted.Contains(ip) {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
