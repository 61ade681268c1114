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
	"os"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"github.com/redpwn/rcsync/pkg/config"
)

var VERSION = "0.1.0-dev.0"

const PROJECT = "rcsync"

var rootCmd = &cobra.Command{
	Use:           PROJECT,
	Version:       VERSION,
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "A command line utility to reconcile CTF challenge namespaces with a Kubernetes cluster.",
	Long: `rcsync makes the managed namespaces of a cluster, and the challenge resources inside them, match a set of manifests.

Reconcile the cluster with local manifests or with a bundle:

- rcsync sync -f <dir path> [-k <overlay path>] [--prune] [--concurrency N] [--fail-fast]
- rcsync sync -a oci://<image-url>:<tag> [--age-identities <file>]
- rcsync diff -f <dir path>

Distribute challenge manifests as OCI artifacts:

- rcsync push bundle oci://<image-url>:<tag> -f <dir path> [--age-recipients <file>]
- rcsync pull bundle oci://<image-url>:<tag>
- rcsync list bundles oci://<repo-url> --semver <condition>

Inspect the managed objects:

- rcsync get inventory
`,
}

type rootFlags struct {
	timeout time.Duration
}

var (
	rootArgs = rootFlags{}
	logger   = stderrLogger{stderr: os.Stderr}
	cfg      = config.NewConfig()
)

var kubeconfigArgs = genericclioptions.NewConfigFlags(false)

func init() {
	rootCmd.PersistentFlags().DurationVar(&rootArgs.timeout, "timeout", 5*time.Minute,
		"The length of time to wait before giving up on the current operation.")

	kubeconfigArgs.Timeout = nil
	kubeconfigArgs.Namespace = nil
	kubeconfigArgs.AddFlags(rootCmd.PersistentFlags())

	rootCmd.DisableAutoGenTag = true
	rootCmd.SetOut(os.Stdout)
}

func main() {
	loadConfig()
	if err := rootCmd.Execute(); err != nil {
		logger.Println(`✗`, err)
		os.Exit(1)
	}
}

func loadConfig() {
	if c, err := config.Read(""); err != nil {
		logger.Println(`✗`, fmt.Errorf("loading the config failed, error: %w", err))
	} else {
		cfg = c
	}
}
