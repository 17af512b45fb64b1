package trusted

import (
	"fmt"
	"net"
	"strings"

	"github.com/slooppe/puredns/internal/exec"
)

// LoadResolvers reads a resolver pool file, one address per line, and
// normalizes entries to host:port. An empty path returns the default
// trusted pool.
func LoadResolvers(path string) ([]string, error) {
	if path == "" {
		return DefaultResolvers, nil
	}
	lines, err := exec.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resolvers: %w", err)
	}

	var out []string
	for _, l := range lines {
		if strings.HasPrefix(l, "#") {
			continue
		}
		out = append(out, NormalizeAddr(l))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("resolver file %s contains no resolvers", path)
	}
	return out, nil
}

// NormalizeAddr appends the default DNS port when missing
func NormalizeAddr(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, "53")
}
