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

package ksync

import (
	"context"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/redpwn/rcsync/pkg/manifest"
)

// listNamespaces returns the names of the namespaces carrying the managed-by marker.
func (s *Syncer) listNamespaces(ctx context.Context) (sets.Set[string], error) {
	methods, _ := s.resolver.For(namespaceKind)
	objects, err := s.list(ctx, methods, "", manifest.Selector(s.opts.ManagedBy))
	if err != nil {
		return nil, err
	}

	names := sets.New[string]()
	for _, obj := range objects {
		names.Insert(obj.GetName())
	}
	return names, nil
}

// reconcileNamespace patches the namespace when it exists, creates it otherwise.
// Namespaces never go through the delete and recreate path, it would remove their content.
func (s *Syncer) reconcileNamespace(ctx context.Context, cs *ChangeSet, ns *unstructured.Unstructured, exists bool) error {
	methods, _ := s.resolver.For(namespaceKind)
	if exists {
		entry := newEntry(PatchAction, namespaceKind, "", ns.GetName())
		return s.apply(cs, entry, func() error {
			return methods.Patch(ctx, "", ns.GetName(), ns, s.patchOptions())
		})
	}

	entry := newEntry(CreateAction, namespaceKind, "", ns.GetName())
	return s.apply(cs, entry, func() error {
		return methods.Create(ctx, "", ns, s.createOptions())
	})
}

// pruneNamespace deletes a managed namespace that is no longer desired.
func (s *Syncer) pruneNamespace(ctx context.Context, cs *ChangeSet, name string) error {
	methods, _ := s.resolver.For(namespaceKind)
	entry := newEntry(DeleteAction, namespaceKind, "", name)
	return s.apply(cs, entry, func() error {
		return ignoreNotFound(methods.Delete(ctx, "", name, s.deleteOptions()))
	})
}
