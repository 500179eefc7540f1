package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type Home Assistant advertises
	ServiceType = "_home-assistant._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for instance discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the default Home Assistant web/API port
	DefaultPort = 8123
)

// Scanner handles mDNS instance discovery
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForInstances discovers Home Assistant instances on the local network
func (s *Scanner) ScanForInstances() ([]*Instance, error) {
	return s.ScanForInstancesWithContext(context.Background())
}

// ScanForInstancesWithContext discovers instances with a custom context
func (s *Scanner) ScanForInstancesWithContext(ctx context.Context) ([]*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	instances := make([]*Instance, 0)
	done := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect entries until the resolver closes the channel
	go func() {
		defer close(done)
		for entry := range entries {
			inst := s.parseServiceEntry(entry)
			if inst != nil {
				instances = append(instances, inst)
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for timeout, then for the collector to drain
	<-ctx.Done()
	<-done

	return instances, nil
}

// FirstInstance waits for the first Home Assistant instance to answer.
// Returns an error if nothing answers within the timeout.
func (s *Scanner) FirstInstance(ctx context.Context) (*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	instChan := make(chan *Instance, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			inst := s.parseServiceEntry(entry)
			if inst != nil {
				select {
				case instChan <- inst:
				default:
				}
				cancel()
				return
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case inst := <-instChan:
		return inst, nil
	case <-ctx.Done():
		select {
		case inst := <-instChan:
			return inst, nil
		default:
		}
		return nil, fmt.Errorf("no Home Assistant instance found within timeout")
	}
}

// parseServiceEntry converts a zeroconf service entry to an Instance
// Returns nil if the entry carries no usable address
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Instance {
	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// Parse TXT records ("key=value" format)
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Instance{
		Name:         entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Version:      metadata["version"],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForInstances is a convenience function with a custom timeout
func ScanForInstances(timeout time.Duration) ([]*Instance, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForInstances()
}
