// Package trusted re-validates resolved names against a small pool of
// resolvers trusted not to return spoofed answers. Names that only
// resolved through the bulk pool are treated as resolver artifacts
// and dropped.
package trusted

import (
	"context"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/ratelimit"
)

// DefaultRatePerResolver is the per-resolver query budget used when
// no explicit rate is configured. The trusted pool is small; the
// budget keeps the validation pass from hammering it.
const DefaultRatePerResolver = 10

// DefaultResolvers is the trusted pool used when no trusted resolver
// file is supplied: large public operators with spoofing protection.
var DefaultResolvers = []string{
	"8.8.8.8:53",
	"8.8.4.4:53",
	"1.1.1.1:53",
	"1.0.0.1:53",
	"9.9.9.9:53",
	"208.67.222.222:53",
}

// Querier asks a single server whether a name resolves to any address
// record. Timeouts and NXDOMAIN are (false, nil); only transport-level
// failures surface as errors.
type Querier interface {
	Query(ctx context.Context, name, server string) (bool, error)
}

// Validator re-resolves a domain set against the trusted pool at a
// bounded aggregate rate.
type Validator struct {
	resolvers []string
	rate      int
	limiter   ratelimit.Limiter
	querier   Querier
}

// New creates a validator over the given trusted pool. A rate of 0
// applies the default budget of DefaultRatePerResolver queries/second
// per resolver.
func New(resolvers []string, rate int) *Validator {
	if len(resolvers) == 0 {
		resolvers = DefaultResolvers
	}
	if rate <= 0 {
		rate = DefaultRatePerResolver * len(resolvers)
	}
	return &Validator{
		resolvers: resolvers,
		rate:      rate,
		limiter:   ratelimit.New(rate),
		querier:   &dnsQuerier{client: &dns.Client{Timeout: 3 * time.Second}},
	}
}

// SetQuerier swaps the query backend; tests use an in-memory fake
func (v *Validator) SetQuerier(q Querier) {
	v.querier = q
}

// Rate returns the aggregate query rate in queries/second
func (v *Validator) Rate() int {
	return v.rate
}

// Resolvers returns the trusted pool
func (v *Validator) Resolvers() []string {
	return v.resolvers
}

// Validate returns the subset of domains that resolve through the
// trusted pool. Names are queried round-robin; one positive answer
// keeps a name, silence from every tried server drops it.
func (v *Validator) Validate(ctx context.Context, domains []string) ([]string, error) {
	var out []string
	for i, domain := range domains {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v.limiter.Take()

		ok, err := v.querier.Query(ctx, domain, v.resolvers[i%len(v.resolvers)])
		if err != nil {
			// One retry on the next resolver before giving up on
			// the name; transport errors on a trusted pool are rare
			v.limiter.Take()
			ok, _ = v.querier.Query(ctx, domain, v.resolvers[(i+1)%len(v.resolvers)])
		}
		if ok {
			out = append(out, domain)
		}
	}
	return out, nil
}

type dnsQuerier struct {
	client *dns.Client
}

func (q *dnsQuerier) Query(ctx context.Context, name, server string) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := q.client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return false, err
	}
	if resp.Truncated {
		tcp := &dns.Client{Net: "tcp", Timeout: q.client.Timeout}
		resp, _, err = tcp.ExchangeContext(ctx, msg, server)
		if err != nil {
			return false, err
		}
	}
	if resp.Rcode != dns.RcodeSuccess {
		return false, nil
	}
	for _, rr := range resp.Answer {
		switch rr.(type) {
		case *dns.A, *dns.AAAA, *dns.CNAME:
			return true, nil
		}
	}
	return false, nil
}
