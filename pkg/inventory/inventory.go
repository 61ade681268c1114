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
	"sort"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/cli-utils/pkg/object"

	"github.com/redpwn/rcsync/pkg/manifest"
)

// Inventory is a record of the namespaces and namespaced objects managed by rcsync.
type Inventory struct {
	Entries object.ObjMetadataSet
}

func NewInventory() *Inventory {
	return &Inventory{Entries: object.ObjMetadataSet{}}
}

// FromObjects returns the inventory the given manifests would produce once reconciled.
func FromObjects(objects []*unstructured.Unstructured) *Inventory {
	inv := NewInventory()
	for _, obj := range objects {
		inv.Add(object.UnstructuredToObjMetadata(obj))
	}
	return inv
}

// Add adds the given object to the inventory.
func (inv *Inventory) Add(meta object.ObjMetadata) {
	inv.Entries = inv.Entries.Union(object.ObjMetadataSet{meta})
}

// Len returns the number of entries.
func (inv *Inventory) Len() int {
	return len(inv.Entries)
}

// List returns the entries ordered by namespace, then by the given kind order, then by name.
func (inv *Inventory) List(kinds []string) []object.ObjMetadata {
	list := make([]object.ObjMetadata, len(inv.Entries))
	copy(list, inv.Entries)
	sort.Sort(manifest.SortableMetas{Metas: list, Kinds: kinds})
	return list
}

// Diff returns the entries that do not exist in the target inventory.
func (inv *Inventory) Diff(target *Inventory) object.ObjMetadataSet {
	return inv.Entries.Diff(target.Entries)
}
