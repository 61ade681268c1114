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
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/redpwn/rcsync/pkg/manifest"
)

const (
	DefaultManagedByKey   = "app.kubernetes.io/managed-by"
	DefaultManagedByValue = "rcds"
	DefaultFieldManager   = "rcsync"
)

// Options contains options for the Sync request.
type Options struct {
	// ManagedBy is the marker label set carried by every namespace owned by rcsync.
	ManagedBy labels.Set

	// FieldManager is recorded on every create and patch request.
	FieldManager string

	// Concurrency bounds the number of namespaces, or (namespace, kind) units, reconciled in parallel.
	Concurrency int

	// FailFast stops the sync at the first failure instead of reconciling the independent units
	// and reporting every failure at the end.
	FailFast bool

	// PruneNamespaces deletes the managed namespaces that are not part of the manifests.
	PruneNamespaces bool

	// DryRun lists the server inventory and records the planned actions without mutating the cluster.
	DryRun bool
}

// DefaultOptions returns the sequential, isolate-and-report, pruning defaults.
func DefaultOptions() Options {
	return Options{
		ManagedBy:       labels.Set{DefaultManagedByKey: DefaultManagedByValue},
		FieldManager:    DefaultFieldManager,
		Concurrency:     1,
		FailFast:        false,
		PruneNamespaces: true,
		DryRun:          false,
	}
}

// Syncer reconciles the namespaces and the catalog kinds of a cluster against a manifest set.
type Syncer struct {
	resolver *Resolver
	opts     Options
	audit    *auditLog

	listBackoff     wait.Backoff
	recreateBackoff wait.Backoff
}

// NewSyncer returns a Syncer writing one audit line per decision to the given writer.
func NewSyncer(resolver *Resolver, audit io.Writer, opts Options) *Syncer {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.FieldManager == "" {
		opts.FieldManager = DefaultFieldManager
	}
	if opts.ManagedBy == nil {
		opts.ManagedBy = DefaultOptions().ManagedBy
	}

	return &Syncer{
		resolver:    resolver,
		opts:        opts,
		audit:       &auditLog{w: audit},
		listBackoff: retry.DefaultBackoff,
		recreateBackoff: wait.Backoff{
			Steps:    10,
			Duration: 500 * time.Millisecond,
			Factor:   1.5,
			Jitter:   0.1,
			Cap:      10 * time.Second,
		},
	}
}

// Sync makes the server inventory match the given manifests. Every namespace is created or
// patched before its content is reconciled, the content is reconciled kind by kind in catalog
// order, and the managed namespaces missing from the manifests are deleted last.
//
// Validation errors are returned before any API call. When FailFast is off, the returned error
// aggregates a UnitError for every namespace or unit that failed; the change set holds the
// actions that were applied in any case.
func (s *Syncer) Sync(ctx context.Context, objects []*unstructured.Unstructured) (*ChangeSet, error) {
	desired, err := manifest.Index(objects)
	if err != nil {
		return nil, fmt.Errorf("indexing manifests failed, error: %w", err)
	}

	if err := s.validate(desired); err != nil {
		return nil, err
	}

	changeSet := NewChangeSet()

	serverNamespaces, err := s.listNamespaces(ctx)
	if err != nil {
		return changeSet, fmt.Errorf("listing namespaces failed, error: %w", err)
	}

	var errs []error

	ready := make([]bool, len(desired.Namespaces))
	var nsTasks []task
	for i, ns := range desired.Namespaces {
		exists := serverNamespaces.Has(ns.GetName())
		serverNamespaces.Delete(ns.GetName())
		nsTasks = append(nsTasks, func(ctx context.Context) error {
			if err := s.reconcileNamespace(ctx, changeSet, ns, exists); err != nil {
				return &UnitError{Namespace: ns.GetName(), Kind: namespaceKind, Err: err}
			}
			ready[i] = true
			return nil
		})
	}
	if err := s.fanOut(ctx, nsTasks); err != nil {
		if s.opts.FailFast {
			return changeSet, err
		}
		errs = append(errs, err)
	}

	var unitTasks []task
	for i, ns := range desired.Namespaces {
		if !ready[i] {
			continue
		}
		namespace := ns.GetName()
		selector := manifest.Selector(manifest.CommonLabels(ns))
		for _, kind := range s.resolver.Registry().Kinds() {
			unitTasks = append(unitTasks, func(ctx context.Context) error {
				if err := s.reconcileKind(ctx, changeSet, namespace, kind, selector, desired.Objects(namespace, kind)); err != nil {
					return &UnitError{Namespace: namespace, Kind: kind, Err: err}
				}
				return nil
			})
		}
	}
	if err := s.fanOut(ctx, unitTasks); err != nil {
		if s.opts.FailFast {
			return changeSet, err
		}
		errs = append(errs, err)
	}

	if s.opts.PruneNamespaces {
		var pruneTasks []task
		for _, name := range sets.List(serverNamespaces) {
			pruneTasks = append(pruneTasks, func(ctx context.Context) error {
				if err := s.pruneNamespace(ctx, changeSet, name); err != nil {
					return &UnitError{Namespace: name, Kind: namespaceKind, Err: err}
				}
				return nil
			})
		}
		if err := s.fanOut(ctx, pruneTasks); err != nil {
			if s.opts.FailFast {
				return changeSet, err
			}
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return changeSet, nil
	}
	return changeSet, utilerrors.Flatten(utilerrors.NewAggregate(errs))
}

// validate rejects kinds missing from the catalog and manifests that a label selector listing would not find.
func (s *Syncer) validate(desired *manifest.DesiredState) error {
	for _, kind := range desired.Kinds() {
		if err := s.resolver.Validate(kind); err != nil {
			return err
		}
	}

	registry := s.resolver.Registry()
	for _, ns := range desired.Namespaces {
		if err := s.resolver.Check(ns); err != nil {
			return err
		}
		if !manifest.HasLabels(ns, s.opts.ManagedBy) {
			return &ConfigurationError{
				Kind:   namespaceKind,
				Reason: fmt.Sprintf("%s is missing the '%s' label", ns.GetName(), manifest.Selector(s.opts.ManagedBy)),
			}
		}

		common := manifest.CommonLabels(ns)
		for _, kind := range desired.Kinds() {
			entry, _ := registry.Lookup(kind)
			for _, obj := range desired.Objects(ns.GetName(), kind) {
				if obj.GetAPIVersion() != entry.APIVersion {
					return &ConfigurationError{
						Kind:   kind,
						Reason: fmt.Sprintf("%s has apiVersion %s, expected %s", manifest.FmtUnstructured(obj), obj.GetAPIVersion(), entry.APIVersion),
					}
				}
				if !manifest.HasLabels(obj, common) {
					return &ConfigurationError{
						Kind:   kind,
						Reason: fmt.Sprintf("%s is missing the namespace labels '%s'", manifest.FmtUnstructured(obj), manifest.Selector(common)),
					}
				}
				if err := s.resolver.Check(obj); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

type task func(ctx context.Context) error

// fanOut runs the tasks with bounded concurrency. With a concurrency of one the tasks run
// sequentially in the given order. Pending tasks are skipped once the context is cancelled.
func (s *Syncer) fanOut(ctx context.Context, tasks []task) error {
	if len(tasks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	var (
		mu   sync.Mutex
		errs []error
	)
	for _, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := t(gctx)
			if err != nil && !s.opts.FailFast {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		if s.opts.FailFast {
			return err
		}
		errs = append(errs, err)
	}
	return utilerrors.NewAggregate(errs)
}
