package netlink

import (
	"errors"
	"fmt"
	"net"

	"github.com/i474232898/outdoor-temperature/internal/common"
)

var (
	ErrNoLink     = errors.New("no active network link")
	ErrNoDeviceIP = errors.New("no device IP")
)

// Bridges and container veths are up on most hosts but never route to the
// sensor service on their own.
var virtualPrefixes = []string{"docker", "veth", "br-", "virbr", "cni", "flannel"}

// InterfaceChecker reports the device as connected when an up, non-loopback
// interface holds a unicast IP address.
type InterfaceChecker struct {
	// Name restricts the check to one interface; empty means any.
	Name string

	interfaces func() ([]net.Interface, error)
	addrs      func(net.Interface) ([]net.Addr, error)
}

func NewInterfaceChecker(name string) *InterfaceChecker {
	return &InterfaceChecker{
		Name:       name,
		interfaces: net.Interfaces,
		addrs:      func(ifi net.Interface) ([]net.Addr, error) { return ifi.Addrs() },
	}
}

// Check returns nil when connected.
func (c *InterfaceChecker) Check() error {
	ifaces, err := c.interfaces()
	if err != nil {
		return fmt.Errorf("list interfaces: %w", err)
	}

	linkUp := false
	for _, ifi := range ifaces {
		if !c.candidate(ifi) {
			continue
		}
		linkUp = true

		addrs, err := c.addrs(ifi)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ip := addrIP(a); ip != nil && ip.IsGlobalUnicast() {
				return nil
			}
		}
	}

	if linkUp {
		return ErrNoDeviceIP
	}
	return ErrNoLink
}

func (c *InterfaceChecker) candidate(ifi net.Interface) bool {
	if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
		return false
	}
	if c.Name != "" {
		return ifi.Name == c.Name
	}
	return !common.HasAnyPrefix(ifi.Name, virtualPrefixes...)
}

func addrIP(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	default:
		return nil
	}
}

// Always is a LinkChecker for hosts where connectivity is not checked.
type Always struct{}

func (Always) Check() error { return nil }
