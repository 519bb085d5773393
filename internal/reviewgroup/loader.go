// Copyright 2026 The IFLA Standards Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reviewgroup

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type document struct {
	ReviewGroups []ReviewGroup `yaml:"review_groups"`
}

// LoadFile reads the review_groups section of a YAML document.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open review group file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads the review_groups section of a YAML document. A document
// without the section yields the default registry.
func Load(r io.Reader) (*Registry, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGroup, err)
	}
	if len(doc.ReviewGroups) == 0 {
		return DefaultRegistry(), nil
	}
	return NewRegistry(doc.ReviewGroups...)
}
