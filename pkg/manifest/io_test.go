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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/cli-utils/pkg/object"
)

func TestReadObjects(t *testing.T) {
	g := NewWithT(t)

	data := `---
apiVersion: kustomize.config.k8s.io/v1beta1
kind: Kustomization
resources:
  - app.yaml
---
apiVersion: v1
kind: List
items:
  - apiVersion: v1
    kind: Service
    metadata:
      name: a
      namespace: chal-1
  - apiVersion: v1
    kind: Service
    metadata:
      name: b
      namespace: chal-1
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: c
  namespace: chal-1
`
	objects, err := ReadObjects(strings.NewReader(data))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(objects).To(HaveLen(3))

	var ids []string
	for _, obj := range objects {
		ids = append(ids, FmtUnstructured(obj))
	}
	expected := []string{"Service chal-1/a", "Service chal-1/b", "ConfigMap chal-1/c"}
	if diff := cmp.Diff(expected, ids); diff != "" {
		t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
	}

	out, err := ObjectsToYAML(objects)
	g.Expect(err).NotTo(HaveOccurred())

	roundTrip, err := ReadObjects(strings.NewReader(out))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(roundTrip).To(HaveLen(3))
}

func TestSortableMetas(t *testing.T) {
	g := NewWithT(t)

	meta := func(kind, namespace, name string) object.ObjMetadata {
		return object.ObjMetadata{
			GroupKind: schema.GroupKind{Kind: kind},
			Namespace: namespace,
			Name:      name,
		}
	}

	metas := []object.ObjMetadata{
		meta("Service", "chal-2", "web"),
		meta("Deployment", "chal-1", "web"),
		meta("Namespace", "", "chal-2"),
		meta("Service", "chal-1", "web"),
		meta("Deployment", "chal-1", "api"),
		meta("Namespace", "", "chal-1"),
	}

	sort.Sort(SortableMetas{Metas: metas, Kinds: []string{"Deployment", "Service"}})

	var ids []string
	for _, m := range metas {
		ids = append(ids, FmtObjMetadata(m))
	}
	g.Expect(ids).To(Equal([]string{
		"Namespace chal-1",
		"Deployment chal-1/api",
		"Deployment chal-1/web",
		"Service chal-1/web",
		"Namespace chal-2",
		"Service chal-2/web",
	}))
}
