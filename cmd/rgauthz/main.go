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

// rgauthz evaluates authorization requests offline against a policy file
// and prints the verdicts as JSON. It uses the same engine as the server,
// without storage or tokens.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iflastandards/rgauthz/internal/authz"
	"github.com/iflastandards/rgauthz/internal/rbac"
	"github.com/iflastandards/rgauthz/internal/reviewgroup"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

type options struct {
	user         string
	roles        []string
	systemRoles  []string
	namespace    string
	kind         string
	id           string
	attrs        []string
	actions      []string
	policyFile   string
	groupsFile   string
	explain      bool
	plan         bool
	printDefault bool
}

type output struct {
	Principal *authz.Principal        `json:"principal"`
	Decision  *authz.Decision         `json:"decision,omitempty"`
	Plans     []*authz.Plan           `json:"plans,omitempty"`
	Tokens    []authz.TokenResolution `json:"tokens,omitempty"`
}

func run(args []string, stdout io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("rgauthz", pflag.ContinueOnError)
	flagSet.StringVar(&opts.user, "user", "cli", "principal id")
	flagSet.StringSliceVar(&opts.roles, "roles", nil, "role tokens, e.g. rg_editor:ISBD (comma separated or repeated)")
	flagSet.StringSliceVar(&opts.systemRoles, "system-roles", nil, "system role names")
	flagSet.StringVar(&opts.namespace, "namespace", "", "scope for legacy namespace-* roles")
	flagSet.StringVar(&opts.kind, "kind", "", "resource kind")
	flagSet.StringVar(&opts.id, "id", "", "resource id")
	flagSet.StringArrayVar(&opts.attrs, "attr", nil, "resource attribute as key=value (repeatable)")
	flagSet.StringArrayVarP(&opts.actions, "action", "a", nil, "action to check (repeatable)")
	flagSet.StringVar(&opts.policyFile, "policy", "", "policy YAML file (default: built-in policy)")
	flagSet.StringVar(&opts.groupsFile, "review-groups", "", "review groups YAML file (default: --policy, then built-in groups)")
	flagSet.BoolVar(&opts.explain, "explain", false, "include how each role token was resolved")
	flagSet.BoolVar(&opts.plan, "plan", false, "print a listing plan per action instead of checking one resource")
	flagSet.BoolVar(&opts.printDefault, "print-default-policy", false, "print the built-in policy and exit")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if opts.printDefault {
		_, err := stdout.Write(rbac.DefaultPolicy())
		return err
	}

	if opts.kind == "" {
		return errors.New("--kind is required")
	}
	if len(opts.actions) == 0 {
		return errors.New("at least one --action is required")
	}

	engine, groups, err := loadEngine(opts.policyFile, opts.groupsFile)
	if err != nil {
		return err
	}

	claims := authz.Claims{
		UserID:      opts.user,
		Roles:       opts.roles,
		SystemRoles: opts.systemRoles,
		Namespace:   opts.namespace,
	}
	resolver := authz.NewResolver(groups)
	out := output{Principal: resolver.Resolve(claims)}
	if opts.explain {
		out.Tokens = resolver.Explain(claims)
	}

	if opts.plan {
		for _, action := range opts.actions {
			out.Plans = append(out.Plans, engine.Plan(out.Principal, opts.kind, action))
		}
	} else {
		attrs, err := parseAttrs(opts.attrs)
		if err != nil {
			return err
		}
		d := engine.Decide(out.Principal, authz.Resource{Kind: opts.kind, ID: opts.id, Attributes: attrs}, opts.actions)
		out.Decision = &d
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func loadEngine(policyFile, groupsFile string) (*authz.Engine, *reviewgroup.Registry, error) {
	model := rbac.DefaultModel()
	if policyFile != "" {
		m, err := rbac.LoadFile(policyFile)
		if err != nil {
			return nil, nil, err
		}
		model = m
	}

	if groupsFile == "" {
		groupsFile = policyFile
	}
	groups := reviewgroup.DefaultRegistry()
	if groupsFile != "" {
		g, err := reviewgroup.LoadFile(groupsFile)
		if err != nil {
			return nil, nil, err
		}
		groups = g
	}
	return authz.NewEngine(model, groups), groups, nil
}

func parseAttrs(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	attrs := make(map[string]any, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --attr %q: want key=value", kv)
		}
		attrs[k] = v
	}
	return attrs, nil
}
