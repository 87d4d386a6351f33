// Package discovery locates peer optical terminals on the local network via
// mDNS, so a fresh install can find a link partner without static addressing.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// DefaultService is the mDNS service type terminals advertise.
const DefaultService = "_fso._tcp"

// Terminal represents a discovered peer terminal.
type Terminal struct {
	Instance  string // advertised name, e.g. "fso terminal mast-1"
	Hostname  string // DNS hostname, e.g. "mast-1.local."
	Addresses []net.IP
	Port      int
	TXT       []string
}

// DiscoverTerminals performs a blocking mDNS browse for the given service and
// returns cleaned, deduplicated terminal entries. An empty service browses
// for DefaultService; an empty domain browses "local.".
func DiscoverTerminals(service, domain string, timeoutSeconds int) ([]Terminal, error) {
	if service == "" {
		service = DefaultService
	}
	if domain == "" {
		domain = "local."
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	resultMap := make(map[string]Terminal)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					close(done)
					return
				}
				if e == nil {
					continue
				}

				addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
				addrs = append(addrs, e.AddrIPv4...)
				addrs = append(addrs, e.AddrIPv6...)

				key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
				resultMap[key] = Terminal{
					Instance:  cleanInstance(e.Instance),
					Hostname:  e.HostName,
					Addresses: addrs,
					Port:      e.Port,
					TXT:       append([]string{}, e.Text...),
				}

			case <-ctx.Done():
				close(done)
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, service, domain, entries); err != nil {
		return nil, fmt.Errorf("browse error: %w", err)
	}

	<-done

	out := make([]Terminal, 0, len(resultMap))
	for _, t := range resultMap {
		out = append(out, t)
	}
	return out, nil
}

// cleanInstance removes zeroconf escape sequences: "\ " => " "
func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
