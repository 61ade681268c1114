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
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
)

// Operation names an API call issued by the reconciler.
type Operation string

const (
	ListOperation   Operation = "list"
	CreateOperation Operation = "create"
	PatchOperation  Operation = "patch"
	DeleteOperation Operation = "delete"
)

// Operations lists every operation a catalog kind must support.
var Operations = []Operation{ListOperation, CreateOperation, PatchOperation, DeleteOperation}

type (
	// ListFunc returns the objects matching the label selector, whatever the shape of the API response.
	ListFunc func(ctx context.Context, namespace, selector string) ([]metav1.Object, error)
	// CreateFunc creates the given manifest.
	CreateFunc func(ctx context.Context, namespace string, obj *unstructured.Unstructured, opts metav1.CreateOptions) error
	// PatchFunc merge-patches the named object with the given manifest.
	PatchFunc func(ctx context.Context, namespace, name string, obj *unstructured.Unstructured, opts metav1.PatchOptions) error
	// DeleteFunc deletes the named object.
	DeleteFunc func(ctx context.Context, namespace, name string, opts metav1.DeleteOptions) error
)

// Methods is the capability table of one kind.
type Methods struct {
	List   ListFunc
	Create CreateFunc
	Patch  PatchFunc
	Delete DeleteFunc

	// Check rejects manifests that can't be sent unmodified, nil when every body is accepted.
	Check func(obj *unstructured.Unstructured) error
}

// Has reports whether the operation is bound.
func (m Methods) Has(op Operation) bool {
	switch op {
	case ListOperation:
		return m.List != nil
	case CreateOperation:
		return m.Create != nil
	case PatchOperation:
		return m.Patch != nil
	case DeleteOperation:
		return m.Delete != nil
	default:
		return false
	}
}

// typedClient is the method set shared by the generated typed clients of client-go.
type typedClient[T runtime.Object, L runtime.Object] interface {
	List(ctx context.Context, opts metav1.ListOptions) (L, error)
	Create(ctx context.Context, obj T, opts metav1.CreateOptions) (T, error)
	Patch(ctx context.Context, name string, pt types.PatchType, data []byte, opts metav1.PatchOptions, subresources ...string) (T, error)
	Delete(ctx context.Context, name string, opts metav1.DeleteOptions) error
}

// typedMethods binds the operations of a built-in kind to its typed client.
// Manifests are converted to the typed struct on create and sent as JSON merge patches on patch.
// The conversion fails on fields the typed struct doesn't model, so that create and patch
// always send the same body.
func typedMethods[T runtime.Object, L runtime.Object](client func(namespace string) typedClient[T, L], newObject func() T) Methods {
	convert := func(obj *unstructured.Unstructured) (T, error) {
		typed := newObject()
		if err := runtime.DefaultUnstructuredConverter.FromUnstructuredWithValidation(obj.UnstructuredContent(), typed, true); err != nil {
			return typed, &ConfigurationError{
				Kind:   obj.GetKind(),
				Reason: fmt.Sprintf("%s can't be converted to %T, error: %v", obj.GetName(), typed, err),
			}
		}
		return typed, nil
	}

	return Methods{
		List: func(ctx context.Context, namespace, selector string) ([]metav1.Object, error) {
			list, err := client(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
			if err != nil {
				return nil, err
			}
			return listObjects(list)
		},
		Create: func(ctx context.Context, namespace string, obj *unstructured.Unstructured, opts metav1.CreateOptions) error {
			typed, err := convert(obj)
			if err != nil {
				return err
			}
			_, err = client(namespace).Create(ctx, typed, opts)
			return err
		},
		Patch: func(ctx context.Context, namespace, name string, obj *unstructured.Unstructured, opts metav1.PatchOptions) error {
			data, err := obj.MarshalJSON()
			if err != nil {
				return err
			}
			_, err = client(namespace).Patch(ctx, name, types.MergePatchType, data, opts)
			return err
		},
		Delete: func(ctx context.Context, namespace, name string, opts metav1.DeleteOptions) error {
			return client(namespace).Delete(ctx, name, opts)
		},
		Check: func(obj *unstructured.Unstructured) error {
			_, err := convert(obj)
			return err
		},
	}
}

// customMethods binds the operations of a custom kind to the generic
// (group, version, plural) endpoint of the dynamic client.
func customMethods(client dynamic.Interface, gvr schema.GroupVersionResource) Methods {
	return Methods{
		List: func(ctx context.Context, namespace, selector string) ([]metav1.Object, error) {
			list, err := client.Resource(gvr).Namespace(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
			if err != nil {
				return nil, err
			}
			return listObjects(list)
		},
		Create: func(ctx context.Context, namespace string, obj *unstructured.Unstructured, opts metav1.CreateOptions) error {
			_, err := client.Resource(gvr).Namespace(namespace).Create(ctx, obj, opts)
			return err
		},
		Patch: func(ctx context.Context, namespace, name string, obj *unstructured.Unstructured, opts metav1.PatchOptions) error {
			data, err := obj.MarshalJSON()
			if err != nil {
				return err
			}
			_, err = client.Resource(gvr).Namespace(namespace).Patch(ctx, name, types.MergePatchType, data, opts)
			return err
		},
		Delete: func(ctx context.Context, namespace, name string, opts metav1.DeleteOptions) error {
			return client.Resource(gvr).Namespace(namespace).Delete(ctx, name, opts)
		},
	}
}

// listObjects normalizes typed lists and unstructured lists to their items metadata.
func listObjects(list runtime.Object) ([]metav1.Object, error) {
	items, err := meta.ExtractList(list)
	if err != nil {
		return nil, err
	}

	objects := make([]metav1.Object, 0, len(items))
	for _, item := range items {
		accessor, err := meta.Accessor(item)
		if err != nil {
			return nil, err
		}
		objects = append(objects, accessor)
	}
	return objects, nil
}
