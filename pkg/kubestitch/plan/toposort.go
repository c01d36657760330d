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
	"sort"
)

// findCycle runs Kahn's algorithm over the graph. It returns nil when the
// graph is a DAG, otherwise the sorted IDs of the nodes left over after all
// acyclic nodes have been peeled off, which are exactly the cycle members
// and their descendants.
func findCycle(g *TaskGraph) []string {
	indegree := map[string]int{}
	for _, n := range g.nodes {
		indegree[n.ID()] = len(g.in[n.ID()])
	}

	var ready []string
	for _, n := range g.nodes {
		if indegree[n.ID()] == 0 {
			ready = append(ready, n.ID())
		}
	}

	visited := 0
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		visited++

		for _, succ := range g.out[id] {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}

	if visited == len(g.nodes) {
		return nil
	}

	var cycle []string
	for id, deg := range indegree {
		if deg > 0 {
			cycle = append(cycle, id)
		}
	}
	sort.Strings(cycle)
	return cycle
}
