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

package plan

import (
	"fmt"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/inventory"
)

// Node pairs one host with one step of a role applying to it.
type Node struct {
	Host *inventory.Host
	Role string
	Step Step
}

// ID uniquely identifies the node within the graph.
func (n *Node) ID() string {
	return fmt.Sprintf("%s/%s/%s", n.Host.Name, n.Role, n.Step.Name)
}

// TaskGraph is the DAG of one run. Nodes are kept in build order: hosts
// sorted by name, each host's steps in declared role and step order, so the
// same topology always produces the same graph.
type TaskGraph struct {
	nodes  []*Node
	byID   map[string]*Node
	out    map[string][]string
	in     map[string][]string
	outSet map[string]map[string]bool
}

func newTaskGraph() *TaskGraph {
	return &TaskGraph{
		byID:   map[string]*Node{},
		out:    map[string][]string{},
		in:     map[string][]string{},
		outSet: map[string]map[string]bool{},
	}
}

func (g *TaskGraph) addNode(n *Node) {
	g.nodes = append(g.nodes, n)
	g.byID[n.ID()] = n
}

func (g *TaskGraph) addEdge(from, to *Node) {
	fromID, toID := from.ID(), to.ID()
	if g.outSet[fromID] == nil {
		g.outSet[fromID] = map[string]bool{}
	}
	if g.outSet[fromID][toID] {
		return
	}
	g.outSet[fromID][toID] = true
	g.out[fromID] = append(g.out[fromID], toID)
	g.in[toID] = append(g.in[toID], fromID)
}

// Nodes returns all nodes in build order.
func (g *TaskGraph) Nodes() []*Node {
	return g.nodes
}

// Node looks a node up by ID.
func (g *TaskGraph) Node(id string) *Node {
	return g.byID[id]
}

// Dependencies returns the IDs of the nodes that must complete before the
// given node runs.
func (g *TaskGraph) Dependencies(n *Node) []string {
	return g.in[n.ID()]
}

// Dependents returns the IDs of the nodes waiting on the given node.
func (g *TaskGraph) Dependents(n *Node) []string {
	return g.out[n.ID()]
}

// HostNodes returns the given host's nodes in execution order.
func (g *TaskGraph) HostNodes(hostName string) []*Node {
	var nodes []*Node
	for _, n := range g.nodes {
		if n.Host.Name == hostName {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
