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

// Package ksync reconciles the managed namespaces of a cluster, and a catalog of namespaced kinds
// inside them, against a flat list of manifests.
//
// The Syncer performs the following actions:
// - indexes the manifests by namespace and kind, rejecting unknown kinds before any API call
// - creates or patches the desired namespaces
// - lists each catalog kind in each namespace with the namespace labels as selector
// - creates the missing objects, patches the existing ones, and deletes the ones not desired
// - replaces (deletes and creates) the objects whose patch is rejected as a conflict
// - deletes the managed namespaces that are not desired
//
// Built-in kinds go through the typed clientset, custom kinds through the dynamic client,
// both behind the same Methods table built by the Resolver.
package ksync
