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
	"errors"
	"fmt"
	"testing"

	. "github.com/onsi/gomega"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	apivalidation "k8s.io/apimachinery/pkg/api/validation"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

func TestIsConflict(t *testing.T) {
	gk := schema.GroupKind{Group: "apps", Kind: "Deployment"}
	gr := schema.GroupResource{Group: "apps", Resource: "deployments"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "stale resource version",
			err:  apierrors.NewConflict(gr, "web", errors.New("the object has been modified")),
			want: true,
		},
		{
			name: "immutable field",
			err: apierrors.NewInvalid(gk, "web", field.ErrorList{
				field.Invalid(field.NewPath("spec", "selector"), "web", apivalidation.FieldImmutableErrorMsg),
			}),
			want: true,
		},
		{
			name: "wrapped immutable field",
			err: fmt.Errorf("PATCH Deployment chal-1/web failed, error: %w", apierrors.NewInvalid(gk, "web", field.ErrorList{
				field.Invalid(field.NewPath("spec", "selector"), "web", apivalidation.FieldImmutableErrorMsg),
			})),
			want: true,
		},
		{
			name: "invalid manifest",
			err: apierrors.NewInvalid(gk, "web", field.ErrorList{
				field.Required(field.NewPath("spec", "template", "spec", "containers"), ""),
			}),
			want: false,
		},
		{
			name: "invalid without causes",
			err:  apierrors.NewInvalid(gk, "web", nil),
			want: false,
		},
		{
			name: "forbidden",
			err:  apierrors.NewForbidden(gr, "web", errors.New("denied")),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			g.Expect(IsConflict(tt.err)).To(Equal(tt.want))
		})
	}
}
