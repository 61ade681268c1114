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
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/redpwn/rcsync/pkg/manifest"
	"github.com/redpwn/rcsync/pkg/registry"
)

var pullBundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Pull bundle downloads the challenge manifests from an OCI artifact and writes them to stdout.",
	Long: `The pull bundle command downloads the specified bundle, verifies its checksum and writes the
manifests as a multi-doc YAML. For private registries, the pull command uses the credentials from '~/.docker/config.json'.`,
	Example: `  # Pull the challenge manifests from GitHub Container Registry
  rcsync pull bundle oci://ghcr.io/org/challenges:v1.0.0

  # Pull and decrypt a bundle into a file
  rcsync pull bundle oci://ghcr.io/org/challenges:v1.0.0 --age-identities ./key.txt -o challenges.yaml
`,
	RunE: runPullBundleCmd,
}

type pullBundleFlags struct {
	ageIdentities string
	output        string
}

var pullBundleArgs pullBundleFlags

func init() {
	pullBundleCmd.Flags().StringVar(&pullBundleArgs.ageIdentities, "age-identities", "",
		"Path to a file containing the age identities used to decrypt the bundle.")
	pullBundleCmd.Flags().StringVarP(&pullBundleArgs.output, "output", "o", "",
		"Write the manifests to the given file instead of stdout.")

	pullCmd.AddCommand(pullBundleCmd)
}

func runPullBundleCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a bundle URL e.g. 'oci://docker.io/user/repo:tag'")
	}

	url, err := registry.ParseURL(args[0])
	if err != nil {
		return err
	}

	identities, err := registry.ParseAgeIdentities(pullBundleArgs.ageIdentities)
	if err != nil {
		return fmt.Errorf("loading age identities failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	objects, meta, err := registry.Pull(ctx, url, identities)
	if err != nil {
		return fmt.Errorf("pulling %s failed: %w", url, err)
	}
	logger.Println("pulled", meta.Digest, "created at", meta.Created, "with", len(meta.Namespaces), "namespaces")

	yml, err := manifest.ObjectsToYAML(objects)
	if err != nil {
		return err
	}

	if pullBundleArgs.output != "" {
		return os.WriteFile(pullBundleArgs.output, []byte(yml), 0644)
	}

	rootCmd.Print(yml)
	return nil
}
