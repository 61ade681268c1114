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

package manifest

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/sets"
)

const namespaceKind = "Namespace"

// DesiredState is the manifest set partitioned into namespaces and
// the namespaced objects grouped by namespace and kind.
type DesiredState struct {
	// Namespaces holds the Namespace manifests in input order.
	Namespaces []*unstructured.Unstructured

	resources map[string]map[string][]*unstructured.Unstructured
	kinds     sets.Set[string]
}

// Index partitions the given manifests. It fails when an object is not namespaced,
// targets a namespace that is not part of the manifests, or is declared more than once.
func Index(objects []*unstructured.Unstructured) (*DesiredState, error) {
	ds := &DesiredState{
		resources: make(map[string]map[string][]*unstructured.Unstructured),
		kinds:     sets.New[string](),
	}

	seen := sets.New[string]()
	for _, obj := range objects {
		if obj.GetKind() != namespaceKind {
			continue
		}
		if seen.Has(obj.GetName()) {
			return nil, fmt.Errorf("%s is declared more than once", FmtUnstructured(obj))
		}
		seen.Insert(obj.GetName())
		ds.Namespaces = append(ds.Namespaces, obj)
		ds.resources[obj.GetName()] = make(map[string][]*unstructured.Unstructured)
	}

	ids := sets.New[string]()
	for _, obj := range objects {
		if obj.GetKind() == namespaceKind {
			continue
		}

		ns := obj.GetNamespace()
		if ns == "" {
			return nil, fmt.Errorf("%s has no namespace", FmtUnstructured(obj))
		}
		byKind, ok := ds.resources[ns]
		if !ok {
			return nil, fmt.Errorf("%s targets namespace '%s' which is not declared", FmtUnstructured(obj), ns)
		}

		id := FmtUnstructured(obj)
		if ids.Has(id) {
			return nil, fmt.Errorf("%s is declared more than once", id)
		}
		ids.Insert(id)

		byKind[obj.GetKind()] = append(byKind[obj.GetKind()], obj)
		ds.kinds.Insert(obj.GetKind())
	}

	return ds, nil
}

// Objects returns the manifests of the given kind declared in the given namespace.
func (ds *DesiredState) Objects(namespace, kind string) []*unstructured.Unstructured {
	return ds.resources[namespace][kind]
}

// Kinds returns the sorted list of the namespaced kinds present in the manifests.
func (ds *DesiredState) Kinds() []string {
	return sets.List(ds.kinds)
}

// Len returns the number of indexed manifests, namespaces included.
func (ds *DesiredState) Len() int {
	n := len(ds.Namespaces)
	for _, byKind := range ds.resources {
		for _, objects := range byKind {
			n += len(objects)
		}
	}
	return n
}
