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

package exec

import (
	"bytes"
	"context"
	"testing"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/inventory"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
	"github.com/kubestitch/kubestitch/testutil"
)

func TestDryRunExecutor(t *testing.T) {
	var out bytes.Buffer
	d := NewDryRunExecutor(&out, map[string]string{"VERSION": "1.31.0"})

	host := &inventory.Host{Name: "master-1", Address: "10.0.0.10:22"}
	step := plan.Step{Name: "install", Run: "install-kubeadm ${VERSION}"}

	res, err := d.Execute(context.Background(), host, step)

	testutil.CheckError(t, false, err)
	testutil.CheckDeepEqual(t, false, res.Changed)
	testutil.CheckDeepEqual(t, "master-1: would run \"install-kubeadm 1.31.0\"\n", out.String())
}
