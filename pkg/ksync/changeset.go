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
	"io"
	"sync"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/cli-utils/pkg/object"

	"github.com/redpwn/rcsync/pkg/manifest"
)

// Action represents the action type performed by the reconciliation process.
type Action string

const (
	CreateAction Action = "CREATE"
	PatchAction  Action = "PATCH"
	DeleteAction Action = "DELETE"
)

// ChangeSetEntry defines the result of an action performed on an object.
type ChangeSetEntry struct {
	Subject object.ObjMetadata
	Action  Action
}

// String renders the entry as '<action> <kind> <namespace>/<name>'.
func (e ChangeSetEntry) String() string {
	return fmt.Sprintf("%s %s", e.Action, manifest.FmtObjMetadata(e.Subject))
}

// ChangeSet holds the result of the reconciliation of an object collection.
// It is safe for concurrent use.
type ChangeSet struct {
	mu      sync.Mutex
	Entries []ChangeSetEntry
}

func NewChangeSet() *ChangeSet {
	return &ChangeSet{Entries: []ChangeSetEntry{}}
}

func (c *ChangeSet) Add(e ChangeSetEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries = append(c.Entries, e)
}

// Count returns the number of entries with the given action.
func (c *ChangeSet) Count(action Action) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.Entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// Strings returns the rendered entries in the order they were recorded.
func (c *ChangeSet) Strings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		out = append(out, e.String())
	}
	return out
}

func newEntry(action Action, kind, namespace, name string) ChangeSetEntry {
	if kind == namespaceKind {
		namespace = ""
	}
	return ChangeSetEntry{
		Subject: object.ObjMetadata{
			GroupKind: schema.GroupKind{Kind: kind},
			Namespace: namespace,
			Name:      name,
		},
		Action: action,
	}
}

// auditLog writes one line per decision, lines from concurrent units are never interleaved.
type auditLog struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *auditLog) record(e ChangeSetEntry) {
	if l == nil || l.w == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, e.String())
}
