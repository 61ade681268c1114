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

package inventory

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/cli-utils/pkg/object"

	"github.com/redpwn/rcsync/pkg/kinds"
	"github.com/redpwn/rcsync/pkg/ksync"
	"github.com/redpwn/rcsync/pkg/manifest"
)

// Collect lists the managed namespaces and, inside each of them, the catalog objects
// that carry the namespace labels. The result is what a sync would consider as server state.
func Collect(ctx context.Context, resolver *ksync.Resolver, managedBy labels.Set) (*Inventory, error) {
	inv := NewInventory()

	nsMethods, err := resolver.For(kinds.NamespaceKind)
	if err != nil {
		return nil, err
	}
	namespaces, err := nsMethods.List(ctx, "", manifest.Selector(managedBy))
	if err != nil {
		return nil, fmt.Errorf("listing namespaces failed, error: %w", err)
	}

	registry := resolver.Registry()
	for _, ns := range namespaces {
		inv.Add(object.ObjMetadata{
			Name:      ns.GetName(),
			GroupKind: schema.GroupKind{Kind: kinds.NamespaceKind},
		})

		selector := manifest.Selector(manifest.CommonLabels(ns))
		for _, entry := range registry.Entries() {
			methods, err := resolver.For(entry.Kind)
			if err != nil {
				return nil, err
			}
			gv, err := entry.GroupVersion()
			if err != nil {
				return nil, err
			}

			objects, err := methods.List(ctx, ns.GetName(), selector)
			if err != nil {
				return nil, fmt.Errorf("listing %s in namespace %s failed, error: %w", entry.Kind, ns.GetName(), err)
			}
			for _, obj := range objects {
				inv.Add(object.ObjMetadata{
					Namespace: ns.GetName(),
					Name:      obj.GetName(),
					GroupKind: schema.GroupKind{Group: gv.Group, Kind: entry.Kind},
				})
			}
		}
	}

	return inv, nil
}
