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
	"fmt"

	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/redpwn/rcsync/pkg/ksync"
)

// newClients returns the typed and the dynamic clients for the current kubeconfig context.
var newClients = func(rcg genericclioptions.RESTClientGetter) (kubernetes.Interface, dynamic.Interface, error) {
	cfg, err := newKubeConfig(rcg)
	if err != nil {
		return nil, nil, err
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("kubernetes client initialization failed: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("dynamic client initialization failed: %w", err)
	}

	return clientset, dynamicClient, nil
}

func newKubeConfig(rcg genericclioptions.RESTClientGetter) (*rest.Config, error) {
	cfg, err := rcg.ToRESTConfig()
	if err != nil {
		return nil, fmt.Errorf("kubeconfig load failed: %w", err)
	}

	cfg.QPS = 50
	cfg.Burst = 100

	return cfg, nil
}

// newResolver binds the configured kind catalog to the cluster clients.
func newResolver() (*ksync.Resolver, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	clientset, dynamicClient, err := newClients(kubeconfigArgs)
	if err != nil {
		return nil, fmt.Errorf("client init failed: %w", err)
	}

	return ksync.NewResolver(registry, clientset, dynamicClient)
}
