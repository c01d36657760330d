/*
Copyright 2025 The Kubestitch Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package inventory

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/schema/latest"
)

// Status is the convergence status of a host. It is owned by the engine for
// the duration of one run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusConverged  Status = "converged"
	StatusFailed     Status = "failed"
)

// Host is one target machine of the topology.
type Host struct {
	// Name uniquely identifies the host.
	Name string

	// Address is the normalized `host:port` connection address.
	Address string

	// Roles are the role tags the host carries.
	Roles []string

	// Vars are host-scoped step parameters.
	Vars map[string]string

	// Status is only mutated by the engine during a run.
	Status Status
}

// HasRole reports whether the host carries the given role tag.
func (h *Host) HasRole(role string) bool {
	for _, r := range h.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Inventory holds the validated hosts of one topology. It is a value passed
// explicitly into every call; loading it has no side effects.
type Inventory struct {
	hosts []*Host
}

// InvalidInventoryError is returned by Load when the declared hosts cannot
// form a valid inventory.
type InvalidInventoryError struct {
	Reason string
}

func (e *InvalidInventoryError) Error() string {
	return fmt.Sprintf("invalid inventory: %s", e.Reason)
}

// Load validates the hosts declared in the topology and builds an Inventory.
func Load(cfg *latest.Topology) (*Inventory, error) {
	if len(cfg.Hosts) == 0 {
		return nil, &InvalidInventoryError{Reason: "no hosts declared"}
	}

	seen := map[string]bool{}
	var hosts []*Host
	for _, hc := range cfg.Hosts {
		if hc.Name == "" {
			return nil, &InvalidInventoryError{Reason: "host with no name"}
		}
		if seen[hc.Name] {
			return nil, &InvalidInventoryError{Reason: fmt.Sprintf("duplicate host name %q", hc.Name)}
		}
		seen[hc.Name] = true

		if len(hc.Roles) == 0 {
			return nil, &InvalidInventoryError{Reason: fmt.Sprintf("host %q has no role", hc.Name)}
		}

		addr, err := normalizeAddress(hc.Address)
		if err != nil {
			return nil, &InvalidInventoryError{Reason: fmt.Sprintf("host %q: %s", hc.Name, err)}
		}

		hosts = append(hosts, &Host{
			Name:    hc.Name,
			Address: addr,
			Roles:   append([]string(nil), hc.Roles...),
			Vars:    hc.Vars,
			Status:  StatusPending,
		})
	}

	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Name < hosts[j].Name })

	return &Inventory{hosts: hosts}, nil
}

// Hosts returns all hosts, sorted by name.
func (i *Inventory) Hosts() []*Host {
	return i.hosts
}

// HostsWithRole returns the hosts carrying the given role tag, sorted by name.
func (i *Inventory) HostsWithRole(role string) []*Host {
	var matched []*Host
	for _, h := range i.hosts {
		if h.HasRole(role) {
			matched = append(matched, h)
		}
	}
	return matched
}

// normalizeAddress validates a `host:port` or bare address and defaults the
// port to 22.
func normalizeAddress(address string) (string, error) {
	if address == "" {
		return "", fmt.Errorf("malformed address: empty")
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		// A bare hostname or IP is allowed; anything with a stray colon is not.
		if strings.Count(address, ":") > 0 {
			return "", fmt.Errorf("malformed address %q", address)
		}
		return net.JoinHostPort(address, "22"), nil
	}

	if host == "" || port == "" {
		return "", fmt.Errorf("malformed address %q", address)
	}
	return net.JoinHostPort(host, port), nil
}
