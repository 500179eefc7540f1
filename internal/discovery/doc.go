// Package discovery provides mDNS-based discovery of Home Assistant instances.
//
// Home Assistant advertises itself on the local network using the
// "_home-assistant._tcp" service type. The TXT records carry the base URL,
// the core version, and the configured location name, which is enough to
// offer a connection target without any manual configuration.
//
// # Usage Example
//
//	instances, err := discovery.ScanForInstances(5 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, inst := range instances {
//	    fmt.Printf("Found: %s -> %s\n", inst.Name, inst.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - The instance must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
