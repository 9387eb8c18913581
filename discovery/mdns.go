// Package discovery advertises a canvas server on the local network and
// finds one from a client.
package discovery

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_collabcanvas._tcp"

var ErrNotFound = errors.New("no canvas server found")

// Advertise publishes the server under instance until the returned server
// is shut down.
func Advertise(instance string, port int) (*mdns.Server, error) {
	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, []string{"collabcanvas"})
	if err != nil {
		return nil, fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mDNS server: %w", err)
	}
	return server, nil
}

// Browse waits up to timeout for an advertised server and returns its
// host:port.
func Browse(timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)

	go func() {
		for e := range entries {
			if addr, ok := entryAddr(e); ok {
				select {
				case found <- addr:
				default:
				}
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	if err != nil {
		return "", fmt.Errorf("mDNS query: %w", err)
	}

	select {
	case addr := <-found:
		return addr, nil
	case <-time.After(100 * time.Millisecond):
		return "", ErrNotFound
	}
}

func entryAddr(e *mdns.ServiceEntry) (string, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return "", false
	}
	return fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port), true
}
