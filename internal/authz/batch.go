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

package authz

// CheckResources evaluates every item independently. Results are in input
// order.
func (e *Engine) CheckResources(p *Principal, items []CheckItem) []CheckResult {
	out := make([]CheckResult, len(items))
	for i, it := range items {
		out[i] = e.CheckResource(p, it.Resource, it.Actions)
	}
	return out
}

// ListAllowed returns the ids of the resources p may perform action on,
// in input order.
func (e *Engine) ListAllowed(p *Principal, resources []Resource, action string) []string {
	out := []string{}
	for _, r := range resources {
		if e.IsAllowed(p, r, action) {
			out = append(out, r.ID)
		}
	}
	return out
}

// Filter returns the resources satisfying plan, in input order.
func (pl *Plan) Filter(resources []Resource) []Resource {
	var out []Resource
	for _, r := range resources {
		if pl.Allows(r) {
			out = append(out, r)
		}
	}
	return out
}
