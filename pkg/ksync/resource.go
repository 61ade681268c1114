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

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/client-go/util/retry"
)

// reconcileKind diffs the desired objects of one kind against the objects listed with the
// namespace selector. Listed objects are patched, missing ones are created, and the listed
// objects that are not desired are deleted in name order.
func (s *Syncer) reconcileKind(ctx context.Context, cs *ChangeSet, namespace, kind, selector string, desired []*unstructured.Unstructured) error {
	methods, err := s.resolver.For(kind)
	if err != nil {
		return err
	}

	existing, err := s.list(ctx, methods, namespace, selector)
	if err != nil {
		return fmt.Errorf("listing %s in namespace %s failed, error: %w", kind, namespace, err)
	}

	server := sets.New[string]()
	for _, obj := range existing {
		server.Insert(obj.GetName())
	}

	for _, obj := range desired {
		name := obj.GetName()
		if !server.Has(name) {
			if err := s.create(ctx, cs, methods, kind, namespace, obj); err != nil {
				return err
			}
			continue
		}

		server.Delete(name)
		if err := s.patch(ctx, cs, methods, kind, namespace, obj); err != nil {
			return err
		}
	}

	for _, name := range sets.List(server) {
		if err := s.delete(ctx, cs, methods, kind, namespace, name); err != nil {
			return err
		}
	}

	return nil
}

func (s *Syncer) create(ctx context.Context, cs *ChangeSet, methods Methods, kind, namespace string, obj *unstructured.Unstructured) error {
	entry := newEntry(CreateAction, kind, namespace, obj.GetName())
	return s.apply(cs, entry, func() error {
		return methods.Create(ctx, namespace, obj, s.createOptions())
	})
}

// patch merge-patches the object. When the patch is rejected as a conflict the object is
// deleted and created again; the patch itself is never retried.
func (s *Syncer) patch(ctx context.Context, cs *ChangeSet, methods Methods, kind, namespace string, obj *unstructured.Unstructured) error {
	entry := newEntry(PatchAction, kind, namespace, obj.GetName())
	s.audit.record(entry)
	if s.opts.DryRun {
		cs.Add(entry)
		return nil
	}

	err := methods.Patch(ctx, namespace, obj.GetName(), obj, s.patchOptions())
	switch {
	case err == nil:
		cs.Add(entry)
		return nil
	case IsConflict(err):
		return s.replace(ctx, cs, methods, kind, namespace, obj)
	default:
		return fmt.Errorf("%s failed, error: %w", entry, err)
	}
}

// replace deletes the object and creates it from the manifest. The create is retried while
// the API reports that the deleted object still exists.
func (s *Syncer) replace(ctx context.Context, cs *ChangeSet, methods Methods, kind, namespace string, obj *unstructured.Unstructured) error {
	if err := s.delete(ctx, cs, methods, kind, namespace, obj.GetName()); err != nil {
		return err
	}

	entry := newEntry(CreateAction, kind, namespace, obj.GetName())
	return s.apply(cs, entry, func() error {
		return retry.OnError(s.recreateBackoff, apierrors.IsAlreadyExists, func() error {
			return methods.Create(ctx, namespace, obj, s.createOptions())
		})
	})
}

func (s *Syncer) delete(ctx context.Context, cs *ChangeSet, methods Methods, kind, namespace, name string) error {
	entry := newEntry(DeleteAction, kind, namespace, name)
	return s.apply(cs, entry, func() error {
		return ignoreNotFound(methods.Delete(ctx, namespace, name, s.deleteOptions()))
	})
}

// apply logs the decision and performs the call unless this is a dry-run.
// The entry is added to the change set once the call succeeded.
func (s *Syncer) apply(cs *ChangeSet, entry ChangeSetEntry, call func() error) error {
	s.audit.record(entry)
	if s.opts.DryRun {
		cs.Add(entry)
		return nil
	}

	if err := call(); err != nil {
		return fmt.Errorf("%s failed, error: %w", entry, err)
	}
	cs.Add(entry)
	return nil
}

// list retries transient failures, listing is idempotent.
func (s *Syncer) list(ctx context.Context, methods Methods, namespace, selector string) ([]metav1.Object, error) {
	var objects []metav1.Object
	err := retry.OnError(s.listBackoff, isTransient, func() error {
		var err error
		objects, err = methods.List(ctx, namespace, selector)
		return err
	})
	return objects, err
}

func (s *Syncer) createOptions() metav1.CreateOptions {
	return metav1.CreateOptions{FieldManager: s.opts.FieldManager}
}

func (s *Syncer) patchOptions() metav1.PatchOptions {
	return metav1.PatchOptions{FieldManager: s.opts.FieldManager}
}

func (s *Syncer) deleteOptions() metav1.DeleteOptions {
	propagation := metav1.DeletePropagationBackground
	return metav1.DeleteOptions{PropagationPolicy: &propagation}
}

func ignoreNotFound(err error) error {
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}
