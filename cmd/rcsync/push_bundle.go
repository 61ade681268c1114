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
	"sort"

	"github.com/spf13/cobra"
	"sigs.k8s.io/cli-utils/pkg/object"

	"github.com/redpwn/rcsync/pkg/manifest"
	"github.com/redpwn/rcsync/pkg/registry"
)

var pushBundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Push bundle uploads the challenge manifests as an OCI artifact.",
	Long: `The push bundle command scans the given path for Kubernetes manifests or Kustomize overlays,
checks that every object belongs to a declared namespace, packages the manifests into a single layer
OCI artifact and pushes it to the container registry.
The push command uses the credentials from '~/.docker/config.json'.`,
	Example: `  # Push the challenges found in a directory tree to GitHub Container Registry
  rcsync push bundle oci://ghcr.io/org/challenges:v1.0.0 -f ./challenges

  # Push an age encrypted bundle to a local registry
  rcsync push bundle oci://localhost:5000/challenges:latest -k ./deploy --age-recipients ./recipients.txt
`,
	RunE: runPushBundleCmd,
}

type pushBundleFlags struct {
	sourceFlags
	ageRecipients string
}

var pushBundleArgs pushBundleFlags

func init() {
	pushBundleCmd.Flags().StringSliceVarP(&pushBundleArgs.filename, "filename", "f", nil,
		"Path to Kubernetes manifest(s). If a directory is specified, then all manifests in the directory tree will be processed recursively.")
	pushBundleCmd.Flags().StringVarP(&pushBundleArgs.kustomize, "kustomize", "k", "",
		"Path to a directory that contains a kustomization.yaml.")
	pushBundleCmd.Flags().StringVar(&pushBundleArgs.ageRecipients, "age-recipients", "",
		"Path to a file containing the age recipients used to encrypt the bundle.")

	pushCmd.AddCommand(pushBundleCmd)
}

func runPushBundleCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a bundle URL e.g. 'oci://docker.io/user/repo:tag'")
	}

	if pushBundleArgs.kustomize == "" && len(pushBundleArgs.filename) == 0 {
		return fmt.Errorf("-f or -k is required")
	}

	url, err := registry.ParseURL(args[0])
	if err != nil {
		return err
	}

	recipients, err := registry.ParseAgeRecipients(pushBundleArgs.ageRecipients)
	if err != nil {
		return fmt.Errorf("loading age recipients failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	logger.Println("building manifests...")
	objects, err := buildManifests(ctx, pushBundleArgs.sourceFlags)
	if err != nil {
		return err
	}

	desired, err := manifest.Index(objects)
	if err != nil {
		return fmt.Errorf("invalid manifests, error: %w", err)
	}

	registryKinds, err := cfg.Registry()
	if err != nil {
		return err
	}
	metas := make([]object.ObjMetadata, 0, len(objects))
	for _, obj := range objects {
		metas = append(metas, object.UnstructuredToObjMetadata(obj))
	}
	sort.Sort(manifest.SortableMetas{Metas: metas, Kinds: registryKinds.Kinds()})
	for _, meta := range metas {
		rootCmd.Println(manifest.FmtObjMetadata(meta))
	}

	logger.Println("pushing bundle", url)
	digest, meta, err := registry.Push(ctx, url, VERSION, objects, recipients)
	if err != nil {
		return fmt.Errorf("pushing bundle failed: %w", err)
	}
	if meta.Encrypted != "" {
		logger.Println("bundle encrypted with", meta.Encrypted)
	}

	logger.Println(fmt.Sprintf("published %d namespaces, digest %s", len(desired.Namespaces), digest))
	return nil
}
