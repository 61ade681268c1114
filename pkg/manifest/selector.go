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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
)

// NameLabel carries the namespace own name and is not a selector criterion.
const NameLabel = "name"

// CommonLabels returns the namespace labels without the name label.
// The returned set is a copy, the namespace object is left untouched.
func CommonLabels(namespace metav1.Object) labels.Set {
	set := labels.Set{}
	for k, v := range namespace.GetLabels() {
		if k == NameLabel {
			continue
		}
		set[k] = v
	}
	return set
}

// Selector joins the labels as comma-separated key=value pairs ordered by key,
// not by the order the labels appear in the manifest.
// An empty set yields an empty selector.
func Selector(set map[string]string) string {
	return labels.SelectorFromSet(set).String()
}

// HasLabels reports whether the object carries every label of the given set.
func HasLabels(obj *unstructured.Unstructured, set map[string]string) bool {
	return labels.SelectorFromSet(set).Matches(labels.Set(obj.GetLabels()))
}
