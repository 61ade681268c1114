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
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/wait"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	k8sfake "k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/redpwn/rcsync/pkg/kinds"
	"github.com/redpwn/rcsync/pkg/manifest"
)

var (
	ingressRoutesGVR    = schema.GroupVersionResource{Group: "traefik.io", Version: "v1alpha1", Resource: "ingressroutes"}
	ingressRouteTCPsGVR = schema.GroupVersionResource{Group: "traefik.io", Version: "v1alpha1", Resource: "ingressroutetcps"}
)

// testEnv wires a Syncer to fake typed and dynamic clients.
type testEnv struct {
	clientset *k8sfake.Clientset
	dynamic   *dynamicfake.FakeDynamicClient
	resolver  *Resolver
	audit     *bytes.Buffer
}

func newTestEnv(t *testing.T, objects ...runtime.Object) *testEnv {
	t.Helper()

	var typed, custom []runtime.Object
	for _, obj := range objects {
		if u, ok := obj.(*unstructured.Unstructured); ok {
			custom = append(custom, u)
			continue
		}
		typed = append(typed, obj)
	}

	env := &testEnv{
		clientset: k8sfake.NewClientset(typed...),
		dynamic: dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
			map[schema.GroupVersionResource]string{
				ingressRoutesGVR:    "IngressRouteList",
				ingressRouteTCPsGVR: "IngressRouteTCPList",
			}, custom...),
		audit: &bytes.Buffer{},
	}

	resolver, err := NewResolver(kinds.Default(), env.clientset, env.dynamic)
	if err != nil {
		t.Fatal(err)
	}
	env.resolver = resolver
	return env
}

func (env *testEnv) syncer(opts Options) *Syncer {
	s := NewSyncer(env.resolver, env.audit, opts)
	s.listBackoff = wait.Backoff{Steps: 3, Duration: time.Millisecond}
	s.recreateBackoff = wait.Backoff{Steps: 5, Duration: time.Millisecond}
	return s
}

func (env *testEnv) sync(t *testing.T, opts Options, data string) (*ChangeSet, error) {
	t.Helper()
	env.audit.Reset()
	env.clientset.ClearActions()
	env.dynamic.ClearActions()
	return env.syncer(opts).Sync(context.Background(), readManifests(t, data))
}

// auditLines returns the lines written by the last sync.
func (env *testEnv) auditLines() []string {
	out := strings.TrimSpace(env.audit.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// mutations returns the create, patch and delete calls recorded by both clients as 'verb resource namespace/name'.
func (env *testEnv) mutations() []string {
	var out []string
	actions := append(env.clientset.Actions(), env.dynamic.Actions()...)
	for _, action := range actions {
		var name string
		switch a := action.(type) {
		case k8stesting.CreateAction:
			if obj, ok := a.GetObject().(interface{ GetName() string }); ok {
				name = obj.GetName()
			}
		case k8stesting.PatchAction:
			name = a.GetName()
		case k8stesting.DeleteAction:
			name = a.GetName()
		default:
			continue
		}
		id := name
		if ns := action.GetNamespace(); ns != "" {
			id = ns + "/" + name
		}
		out = append(out, action.GetVerb()+" "+action.GetResource().Resource+" "+id)
	}
	return out
}

func readManifests(t *testing.T, data string) []*unstructured.Unstructured {
	t.Helper()
	objects, err := manifest.ReadObjects(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return objects
}

func challengeNamespace(name string) string {
	return `---
apiVersion: v1
kind: Namespace
metadata:
  name: ` + name + `
  labels:
    name: ` + name + `
    app.kubernetes.io/managed-by: rcds
    rcds.redpwn.net/challenge-id: ` + name + `
`
}

func challengeObject(apiVersion, kind, namespace, name string) string {
	return `---
apiVersion: ` + apiVersion + `
kind: ` + kind + `
metadata:
  name: ` + name + `
  namespace: ` + namespace + `
  labels:
    app.kubernetes.io/managed-by: rcds
    rcds.redpwn.net/challenge-id: ` + namespace + `
`
}

func challengeDeployment(namespace, name string) string {
	return challengeObject("apps/v1", "Deployment", namespace, name) + `spec:
  replicas: 1
  selector:
    matchLabels:
      app: ` + name + `
  template:
    metadata:
      labels:
        app: ` + name + `
    spec:
      containers:
      - name: app
        image: ghcr.io/redpwn/` + name + `:latest
`
}

func challengeService(namespace, name string) string {
	return challengeObject("v1", "Service", namespace, name) + `spec:
  selector:
    app: ` + name + `
  ports:
  - port: 80
`
}

func challengeIngressRoute(namespace, name string) string {
	return challengeObject("traefik.io/v1alpha1", "IngressRoute", namespace, name) + `spec:
  entryPoints:
  - websecure
  routes:
  - match: Host(` + "`" + name + `.example.com` + "`" + `)
    kind: Rule
`
}
