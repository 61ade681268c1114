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

package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/distribution/distribution/v3/configuration"
	distregistry "github.com/distribution/distribution/v3/registry"
	_ "github.com/distribution/distribution/v3/registry/storage/driver/inmemory"
	"github.com/mattn/go-shellwords"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/dynamic"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/redpwn/rcsync/pkg/config"
)

var (
	tmpDir            string
	registryHost      string
	testClientset     *k8sfake.Clientset
	testDynamicClient *dynamicfake.FakeDynamicClient
)

func TestMain(m *testing.M) {
	regURL, err := startTestRegistry()
	if err != nil {
		panic(err)
	}
	registryHost = regURL

	tmpDir, err = os.MkdirTemp("", "rcsync")
	if err != nil {
		panic(err)
	}

	newClients = func(genericclioptions.RESTClientGetter) (kubernetes.Interface, dynamic.Interface, error) {
		return testClientset, testDynamicClient, nil
	}
	resetTestCluster()

	code := m.Run()

	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// resetTestCluster replaces the cluster with an empty one holding the given objects.
func resetTestCluster(objects ...runtime.Object) {
	testClientset = k8sfake.NewClientset(objects...)
	testDynamicClient = dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
		map[schema.GroupVersionResource]string{
			{Group: "traefik.io", Version: "v1alpha1", Resource: "ingressroutes"}:    "IngressRouteList",
			{Group: "traefik.io", Version: "v1alpha1", Resource: "ingressroutetcps"}: "IngressRouteTCPList",
		})
}

func startTestRegistry() (string, error) {
	port, err := getFreePort()
	if err != nil {
		return "", err
	}

	host := fmt.Sprintf("localhost:%d", port)
	regConfig := &configuration.Configuration{}
	regConfig.Log.Level = configuration.Loglevel("error")
	regConfig.Log.AccessLog.Disabled = true
	regConfig.HTTP.Addr = fmt.Sprintf(":%d", port)
	regConfig.HTTP.DrainTimeout = time.Duration(10) * time.Second
	regConfig.Storage = map[string]configuration.Parameters{"inmemory": map[string]interface{}{}}
	dockerRegistry, err := distregistry.NewRegistry(context.Background(), regConfig)
	if err != nil {
		return "", err
	}

	go dockerRegistry.ListenAndServe()

	return host, nil
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

type TestFile struct {
	Name string
	Body string
}

func makeTestDir(name string, files []TestFile) (string, error) {
	dir := filepath.Join(tmpDir, name)
	_ = os.RemoveAll(dir)

	if err := os.MkdirAll(dir, 0700); err != nil {
		return dir, err
	}

	for _, file := range files {
		if err := os.WriteFile(filepath.Join(dir, file.Name), []byte(file.Body), 0644); err != nil {
			return dir, err
		}
	}
	return dir, nil
}

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyz1234567890")

func randStringRunes(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rand.Intn(len(letterRunes))]
	}
	return string(b)
}

func executeCommand(cmd string) (string, error) {
	return executeCommandWithIn(cmd, nil)
}

func executeCommandWithIn(cmd string, in *bytes.Buffer) (string, error) {
	defer resetCmdArgs()
	args, err := shellwords.Parse(cmd)
	if err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)

	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	if in != nil {
		rootCmd.SetIn(in)
	}

	logger.stderr = rootCmd.ErrOrStderr()

	_, err = rootCmd.ExecuteC()
	result := buf.String()

	return result, err
}

func resetCmdArgs() {
	syncArgs = newSyncFlags()
	diffArgs = newDiffFlags()
	getInventoryArgs = getInventoryFlags{}
	pushBundleArgs = pushBundleFlags{}
	pullBundleArgs = pullBundleFlags{}
	listBundlesArgs = listBundlesFlags{}
	cfg = config.NewConfig()
	rootCmd.SetIn(nil)
}

// testChallenge returns the manifests of a challenge namespace serving a web deployment.
var testChallenge = func(id string) []TestFile {
	return []TestFile{
		{
			Name: "namespace.yaml",
			Body: fmt.Sprintf(`---
apiVersion: v1
kind: Namespace
metadata:
  name: "%[1]s"
  labels:
    name: "%[1]s"
    app.kubernetes.io/managed-by: rcds
    rcds.redpwn.net/challenge-id: "%[1]s"
`, id),
		},
		{
			Name: "deployment.yaml",
			Body: fmt.Sprintf(`---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
  namespace: "%[1]s"
  labels:
    app.kubernetes.io/managed-by: rcds
    rcds.redpwn.net/challenge-id: "%[1]s"
spec:
  replicas: 1
  selector:
    matchLabels:
      app: web
  template:
    metadata:
      labels:
        app: web
    spec:
      containers:
      - name: app
        image: ghcr.io/redpwn/%[1]s:latest
`, id),
		},
		{
			Name: "service.yaml",
			Body: fmt.Sprintf(`---
apiVersion: v1
kind: Service
metadata:
  name: web
  namespace: "%[1]s"
  labels:
    app.kubernetes.io/managed-by: rcds
    rcds.redpwn.net/challenge-id: "%[1]s"
spec:
  selector:
    app: web
  ports:
  - port: 80
`, id),
		},
		{
			Name: "ingressroute.yaml",
			Body: fmt.Sprintf(`---
apiVersion: traefik.io/v1alpha1
kind: IngressRoute
metadata:
  name: web
  namespace: "%[1]s"
  labels:
    app.kubernetes.io/managed-by: rcds
    rcds.redpwn.net/challenge-id: "%[1]s"
spec:
  routes:
  - kind: Rule
    match: Host("%[1]s.example.com")
`, id),
		},
	}
}
