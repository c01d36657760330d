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

package schema

import (
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/schema/latest"
)

type apiVersion struct {
	Version string `yaml:"apiVersion"`
}

// ParseTopology parses a topology document, checking its apiVersion first so
// an old or foreign document fails with a useful message instead of a pile of
// unmarshalling errors.
func ParseTopology(buf []byte) (*latest.Topology, error) {
	var v apiVersion
	if err := yaml.Unmarshal(buf, &v); err != nil {
		return nil, errors.Wrap(err, "parsing api version")
	}

	if v.Version != latest.Version {
		return nil, errors.Errorf("unsupported apiVersion %q, expected %q", v.Version, latest.Version)
	}

	cfg := latest.NewTopology()
	if err := yaml.UnmarshalStrict(buf, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing topology")
	}

	if cfg.Kind != "Topology" {
		return nil, errors.Errorf("unsupported kind %q, expected %q", cfg.Kind, "Topology")
	}

	return cfg, nil
}
