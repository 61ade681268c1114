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
	"sort"

	"sigs.k8s.io/cli-utils/pkg/object"
)

// SortableMetas orders object metadata by namespace, then by the position
// of the kind in the catalog, then by name.
type SortableMetas struct {
	Metas []object.ObjMetadata
	Kinds []string
}

var _ sort.Interface = SortableMetas{}

func (a SortableMetas) Len() int      { return len(a.Metas) }
func (a SortableMetas) Swap(i, j int) { a.Metas[i], a.Metas[j] = a.Metas[j], a.Metas[i] }
func (a SortableMetas) Less(i, j int) bool {
	first, second := a.Metas[i], a.Metas[j]

	// namespaces sort before the objects they contain
	firstNs, secondNs := namespaceOf(first), namespaceOf(second)
	if firstNs != secondNs {
		return firstNs < secondNs
	}

	if first.GroupKind.Kind != second.GroupKind.Kind {
		return a.index(first.GroupKind.Kind) < a.index(second.GroupKind.Kind)
	}
	return first.Name < second.Name
}

func (a SortableMetas) index(kind string) int {
	if kind == "Namespace" {
		return -1
	}
	for i, k := range a.Kinds {
		if k == kind {
			return i
		}
	}
	return len(a.Kinds)
}

func namespaceOf(obj object.ObjMetadata) string {
	if obj.GroupKind.Kind == "Namespace" {
		return obj.Name
	}
	return obj.Namespace
}
