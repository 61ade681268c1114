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
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"

	"github.com/redpwn/rcsync/pkg/kinds"
)

const namespaceKind = kinds.NamespaceKind

// builtins maps the built-in kinds to their typed client bindings.
var builtins = map[schema.GroupVersionKind]func(kubernetes.Interface) Methods{
	appsv1.SchemeGroupVersion.WithKind("Deployment"): func(cs kubernetes.Interface) Methods {
		return typedMethods(func(ns string) typedClient[*appsv1.Deployment, *appsv1.DeploymentList] {
			return cs.AppsV1().Deployments(ns)
		}, func() *appsv1.Deployment { return &appsv1.Deployment{} })
	},
	appsv1.SchemeGroupVersion.WithKind("StatefulSet"): func(cs kubernetes.Interface) Methods {
		return typedMethods(func(ns string) typedClient[*appsv1.StatefulSet, *appsv1.StatefulSetList] {
			return cs.AppsV1().StatefulSets(ns)
		}, func() *appsv1.StatefulSet { return &appsv1.StatefulSet{} })
	},
	corev1.SchemeGroupVersion.WithKind("Service"): func(cs kubernetes.Interface) Methods {
		return typedMethods(func(ns string) typedClient[*corev1.Service, *corev1.ServiceList] {
			return cs.CoreV1().Services(ns)
		}, func() *corev1.Service { return &corev1.Service{} })
	},
	corev1.SchemeGroupVersion.WithKind("ConfigMap"): func(cs kubernetes.Interface) Methods {
		return typedMethods(func(ns string) typedClient[*corev1.ConfigMap, *corev1.ConfigMapList] {
			return cs.CoreV1().ConfigMaps(ns)
		}, func() *corev1.ConfigMap { return &corev1.ConfigMap{} })
	},
	corev1.SchemeGroupVersion.WithKind("Secret"): func(cs kubernetes.Interface) Methods {
		return typedMethods(func(ns string) typedClient[*corev1.Secret, *corev1.SecretList] {
			return cs.CoreV1().Secrets(ns)
		}, func() *corev1.Secret { return &corev1.Secret{} })
	},
	corev1.SchemeGroupVersion.WithKind("ServiceAccount"): func(cs kubernetes.Interface) Methods {
		return typedMethods(func(ns string) typedClient[*corev1.ServiceAccount, *corev1.ServiceAccountList] {
			return cs.CoreV1().ServiceAccounts(ns)
		}, func() *corev1.ServiceAccount { return &corev1.ServiceAccount{} })
	},
	networkingv1.SchemeGroupVersion.WithKind("NetworkPolicy"): func(cs kubernetes.Interface) Methods {
		return typedMethods(func(ns string) typedClient[*networkingv1.NetworkPolicy, *networkingv1.NetworkPolicyList] {
			return cs.NetworkingV1().NetworkPolicies(ns)
		}, func() *networkingv1.NetworkPolicy { return &networkingv1.NetworkPolicy{} })
	},
	networkingv1.SchemeGroupVersion.WithKind("Ingress"): func(cs kubernetes.Interface) Methods {
		return typedMethods(func(ns string) typedClient[*networkingv1.Ingress, *networkingv1.IngressList] {
			return cs.NetworkingV1().Ingresses(ns)
		}, func() *networkingv1.Ingress { return &networkingv1.Ingress{} })
	},
	batchv1.SchemeGroupVersion.WithKind("Job"): func(cs kubernetes.Interface) Methods {
		return typedMethods(func(ns string) typedClient[*batchv1.Job, *batchv1.JobList] {
			return cs.BatchV1().Jobs(ns)
		}, func() *batchv1.Job { return &batchv1.Job{} })
	},
}

// IsBuiltin reports whether the kind is served by a typed client.
func IsBuiltin(e kinds.Entry) bool {
	gv, err := e.GroupVersion()
	if err != nil {
		return false
	}
	_, ok := builtins[gv.WithKind(e.Kind)]
	return ok
}

// Resolver holds the capability table of every catalog kind, built once for a pair of clients.
type Resolver struct {
	registry   *kinds.Registry
	methods    map[string]Methods
	namespaces Methods
}

// NewResolver binds every kind of the registry either to its typed client
// or to the dynamic client. Built-in kinds without a typed binding and
// kinds with neither a binding nor a plural are rejected.
func NewResolver(registry *kinds.Registry, clientset kubernetes.Interface, dynamicClient dynamic.Interface) (*Resolver, error) {
	r := &Resolver{
		registry: registry,
		methods:  make(map[string]Methods, len(registry.Kinds())),
		namespaces: typedMethods(func(string) typedClient[*corev1.Namespace, *corev1.NamespaceList] {
			return clientset.CoreV1().Namespaces()
		}, func() *corev1.Namespace { return &corev1.Namespace{} }),
	}

	for _, e := range registry.Entries() {
		if e.IsCustom() {
			gvr, err := e.GroupVersionResource()
			if err != nil {
				return nil, &ConfigurationError{Kind: e.Kind, Reason: err.Error()}
			}
			r.methods[e.Kind] = customMethods(dynamicClient, gvr)
			continue
		}

		gv, err := e.GroupVersion()
		if err != nil {
			return nil, &ConfigurationError{Kind: e.Kind, Reason: err.Error()}
		}
		bind, ok := builtins[gv.WithKind(e.Kind)]
		if !ok {
			return nil, &ConfigurationError{
				Kind:   e.Kind,
				Reason: fmt.Sprintf("%s is not a built-in kind, a plural resource name is required", gv.WithKind(e.Kind)),
			}
		}
		r.methods[e.Kind] = bind(clientset)
	}

	return r, nil
}

// Registry returns the catalog the resolver was built for.
func (r *Resolver) Registry() *kinds.Registry {
	return r.registry
}

// For returns the capability table of the given kind.
func (r *Resolver) For(kind string) (Methods, error) {
	if kind == namespaceKind {
		return r.namespaces, nil
	}
	m, ok := r.methods[kind]
	if !ok {
		return Methods{}, &ConfigurationError{Kind: kind, Reason: "kind is not registered"}
	}
	return m, nil
}

// Validate checks that the kind supports the given operations, all of them when none are given.
func (r *Resolver) Validate(kind string, ops ...Operation) error {
	m, err := r.For(kind)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		ops = Operations
	}
	for _, op := range ops {
		if !m.Has(op) {
			return &ConfigurationError{Kind: kind, Operation: op, Reason: "operation is not supported"}
		}
	}
	return nil
}

// Check verifies that the manifest can be reconciled by the methods of its kind.
func (r *Resolver) Check(obj *unstructured.Unstructured) error {
	m, err := r.For(obj.GetKind())
	if err != nil {
		return err
	}
	if m.Check == nil {
		return nil
	}
	return m.Check(obj)
}

// Resolve returns the function bound to the operation of the kind:
// a ListFunc, CreateFunc, PatchFunc or DeleteFunc.
func (r *Resolver) Resolve(kind string, op Operation) (any, error) {
	if err := r.Validate(kind, op); err != nil {
		return nil, err
	}
	m, _ := r.For(kind)
	switch op {
	case ListOperation:
		return m.List, nil
	case CreateOperation:
		return m.Create, nil
	case PatchOperation:
		return m.Patch, nil
	default:
		return m.Delete, nil
	}
}
