package wildcard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/miekg/dns"

	"github.com/slooppe/puredns/internal/massdns"
)

// Detector identifies wildcard parent zones given the answer store
// and the candidate list of one resolution pass.
type Detector interface {
	Detect(ctx context.Context, store *massdns.Store, domains []string) (*Detection, error)
}

// DNSDetector confirms wildcard zones by probing random labels under
// every parent zone of the resolved names. A label that cannot have
// been guessed by a wordlist resolving anyway is the wildcard
// signature.
type DNSDetector struct {
	// Resolvers are the servers used for probe queries, host:port
	Resolvers []string
	// Probes is the number of random labels tested per zone; more
	// probes collect more answers from round-robin wildcards
	Probes int
	// Workers bounds concurrent zone checks
	Workers int
	// Timeout applies to a single probe query
	Timeout time.Duration

	client *dns.Client
}

// NewDNSDetector creates a probing detector over the given resolver pool
func NewDNSDetector(resolvers []string) *DNSDetector {
	return &DNSDetector{
		Resolvers: resolvers,
		Probes:    3,
		Workers:   10,
		Timeout:   3 * time.Second,
		client:    &dns.Client{Timeout: 3 * time.Second},
	}
}

// Detect probes every distinct parent zone of the resolved names and
// returns the confirmed wildcard roots with their answer values.
func (d *DNSDetector) Detect(ctx context.Context, store *massdns.Store, domains []string) (*Detection, error) {
	if len(d.Resolvers) == 0 {
		return nil, fmt.Errorf("no resolvers available for wildcard detection")
	}

	zones := parentZones(store.Domains())
	det := NewDetection()
	if len(zones) == 0 {
		return det, nil
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		failures int
		firstErr error
	)
	sem := make(chan struct{}, d.workers())

	for _, zone := range zones {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(zone string) {
			defer wg.Done()
			defer func() { <-sem }()

			answers, err := d.probeZone(ctx, zone)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if len(answers) > 0 {
				det.AddRoot(zone)
				for _, a := range answers {
					det.AddAnswer(a)
				}
			}
		}(zone)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Individual probe errors mean "no wildcard confirmed"; a pool
	// that never answered at all is a detection failure
	if failures == len(zones) {
		return nil, fmt.Errorf("wildcard detection failed on every zone: %w", firstErr)
	}

	sort.Strings(det.Roots)
	return det, nil
}

func (d *DNSDetector) workers() int {
	if d.Workers <= 0 {
		return 1
	}
	return d.Workers
}

// probeZone queries random labels under the zone and returns the
// union of address answers, or nil when the zone is not a wildcard.
func (d *DNSDetector) probeZone(ctx context.Context, zone string) ([]string, error) {
	probes := d.Probes
	if probes <= 0 {
		probes = 1
	}

	seen := make(map[string]bool)
	var answers []string
	var lastErr error
	answered := false

	for i := 0; i < probes; i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		label := strings.ReplaceAll(uuid.New().String(), "-", "")
		server := d.Resolvers[i%len(d.Resolvers)]

		ips, err := d.query(ctx, label+"."+zone, server)
		if err != nil {
			lastErr = err
			continue
		}
		answered = true
		for _, ip := range ips {
			if !seen[ip] {
				seen[ip] = true
				answers = append(answers, ip)
			}
		}
	}

	if !answered && lastErr != nil {
		return nil, lastErr
	}
	return answers, nil
}

// query resolves a name against one server and returns its A answers.
// NXDOMAIN and empty answers return nil, nil.
func (d *DNSDetector) query(ctx context.Context, name, server string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := d.client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		tcp := &dns.Client{Net: "tcp", Timeout: d.Timeout}
		resp, _, err = tcp.ExchangeContext(ctx, msg, server)
		if err != nil {
			return nil, err
		}
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, nil
	}

	var ips []string
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	return ips, nil
}

// parentZones returns every distinct parent zone of the given names,
// deepest first. A zone keeps at least two labels; probing TLDs is
// pointless and noisy.
func parentZones(names []string) []string {
	seen := make(map[string]bool)
	var zones []string
	for _, name := range names {
		zone := name
		for {
			idx := strings.Index(zone, ".")
			if idx < 0 {
				break
			}
			zone = zone[idx+1:]
			if strings.Count(zone, ".") < 1 {
				break
			}
			if !seen[zone] {
				seen[zone] = true
				zones = append(zones, zone)
			}
		}
	}
	return zones
}
