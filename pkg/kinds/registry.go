/*
Copyright 2026 The rcsync Authors.

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

// Package kinds holds the catalog of namespaced resource kinds that rcsync reconciles.
package kinds

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// NamespaceKind is handled separately from the catalog, namespaces are reconciled before their content.
const NamespaceKind = "Namespace"

// Entry maps a kind to its API version and, for custom kinds, to its plural resource name.
type Entry struct {
	Kind       string `json:"kind"`
	APIVersion string `json:"apiVersion"`

	// Plural is set only for custom kinds served by a CRD.
	Plural string `json:"plural,omitempty"`
}

// IsCustom reports whether the kind is addressed by group/version/plural.
func (e Entry) IsCustom() bool {
	return e.Plural != ""
}

// GroupVersion parses the entry API version.
func (e Entry) GroupVersion() (schema.GroupVersion, error) {
	return schema.ParseGroupVersion(e.APIVersion)
}

// GroupVersionResource returns the resource coordinates of a custom kind.
func (e Entry) GroupVersionResource() (schema.GroupVersionResource, error) {
	gv, err := e.GroupVersion()
	if err != nil {
		return schema.GroupVersionResource{}, err
	}
	return gv.WithResource(e.Plural), nil
}

// Registry is a read-only kind catalog, the order of the entries is the reconciliation order.
type Registry struct {
	order   []string
	entries map[string]Entry
}

// NewRegistry validates the given entries and returns an immutable Registry.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		order:   make([]string, 0, len(entries)),
		entries: make(map[string]Entry, len(entries)),
	}

	for _, e := range entries {
		if e.Kind == "" {
			return nil, fmt.Errorf("kind name can't be empty")
		}
		if e.Kind == NamespaceKind {
			return nil, fmt.Errorf("%s can't be part of the catalog", NamespaceKind)
		}
		if _, ok := r.entries[e.Kind]; ok {
			return nil, fmt.Errorf("kind %s is registered more than once", e.Kind)
		}
		if e.APIVersion == "" {
			return nil, fmt.Errorf("kind %s has no apiVersion", e.Kind)
		}
		gv, err := e.GroupVersion()
		if err != nil {
			return nil, fmt.Errorf("kind %s has an invalid apiVersion, error: %w", e.Kind, err)
		}
		// the core group has no plural lookup, everything else outside the
		// typed clients must be reachable through the dynamic client
		if e.IsCustom() && gv.Group == "" {
			return nil, fmt.Errorf("custom kind %s must belong to an API group", e.Kind)
		}

		r.order = append(r.order, e.Kind)
		r.entries[e.Kind] = e
	}

	return r, nil
}

// Default returns the catalog used when no custom kinds are configured.
func Default() *Registry {
	r, err := NewRegistry(DefaultEntries()...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultEntries returns a copy of the default catalog entries.
func DefaultEntries() []Entry {
	return []Entry{
		{Kind: "Deployment", APIVersion: "apps/v1"},
		{Kind: "Service", APIVersion: "v1"},
		{Kind: "NetworkPolicy", APIVersion: "networking.k8s.io/v1"},
		{Kind: "IngressRoute", APIVersion: "traefik.io/v1alpha1", Plural: "ingressroutes"},
		{Kind: "IngressRouteTCP", APIVersion: "traefik.io/v1alpha1", Plural: "ingressroutetcps"},
	}
}

// Kinds returns the registered kinds in reconciliation order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, len(r.order))
	copy(kinds, r.order)
	return kinds
}

// Entries returns the registered entries in reconciliation order.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.order))
	for _, kind := range r.order {
		entries = append(entries, r.entries[kind])
	}
	return entries
}

// Lookup returns the entry registered for the given kind.
func (r *Registry) Lookup(kind string) (Entry, bool) {
	e, ok := r.entries[kind]
	return e, ok
}

// Has reports whether the kind is part of the catalog.
func (r *Registry) Has(kind string) bool {
	_, ok := r.entries[kind]
	return ok
}

// With returns a new Registry holding the current entries followed by the given ones.
func (r *Registry) With(entries ...Entry) (*Registry, error) {
	return NewRegistry(append(r.Entries(), entries...)...)
}
