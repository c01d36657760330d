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
	"strings"
)

// UnknownRoleReferenceError is returned when a role depends on a role that
// is not declared.
type UnknownRoleReferenceError struct {
	Role      string
	Reference string
}

func (e *UnknownRoleReferenceError) Error() string {
	return fmt.Sprintf("role %q depends on unknown role %q", e.Role, e.Reference)
}

// CyclicDependencyError is returned when the declared dependencies cannot
// form a DAG. Nodes lists the members of the cycle.
type CyclicDependencyError struct {
	Nodes []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency involving: %s", strings.Join(e.Nodes, ", "))
}
