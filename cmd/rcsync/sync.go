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

	"github.com/spf13/cobra"

	"github.com/redpwn/rcsync/pkg/ksync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync makes the managed namespaces and their challenge resources match the given manifests.",
	Long: `The sync command reads the manifests from files, a Kustomize overlay or a bundle and reconciles the cluster:
namespaces are created or patched first, then each catalog kind is listed inside every namespace with the
namespace labels as selector; missing objects are created, existing ones are patched, and the ones that are
no longer desired are deleted. Objects whose patch is rejected are deleted and created again.
Managed namespaces missing from the manifests are deleted unless --prune=false is set.`,
	Example: `  # Reconcile the cluster with the challenges found in a directory tree
  rcsync sync -f ./challenges

  # Reconcile the cluster with an encrypted bundle, four units at a time
  rcsync sync -a oci://ghcr.io/org/challenges:v1.0.0 --age-identities ./key.txt --concurrency 4

  # Reconcile from stdin without deleting the namespaces that are not listed
  cat challenges.yaml | rcsync sync -f - --prune=false
`,
	RunE: runSyncCmd,
}

type syncFlags struct {
	sourceFlags
	prune       bool
	dryRun      bool
	concurrency int
	failFast    bool
}

var syncArgs = newSyncFlags()

func newSyncFlags() syncFlags {
	return syncFlags{prune: true}
}

func init() {
	addSourceFlags(syncCmd, &syncArgs.sourceFlags)
	syncCmd.Flags().BoolVar(&syncArgs.prune, "prune", true,
		"Delete the managed namespaces that are not part of the manifests.")
	syncCmd.Flags().BoolVar(&syncArgs.dryRun, "dry-run", false,
		"List the cluster objects and print the planned actions without applying them.")
	syncCmd.Flags().IntVar(&syncArgs.concurrency, "concurrency", 0,
		"The number of namespaces, or kinds inside namespaces, reconciled in parallel. Defaults to the config value.")
	syncCmd.Flags().BoolVar(&syncArgs.failFast, "fail-fast", false,
		"Stop at the first failure instead of reconciling the other namespaces and reporting every failure.")

	rootCmd.AddCommand(syncCmd)
}

func addSourceFlags(cmd *cobra.Command, src *sourceFlags) {
	cmd.Flags().StringSliceVarP(&src.filename, "filename", "f", nil,
		"Path to Kubernetes manifest(s). If a directory is specified, then all manifests in the directory tree will be processed recursively. Use '-' to read from stdin.")
	cmd.Flags().StringVarP(&src.kustomize, "kustomize", "k", "",
		"Path to a directory that contains a kustomization.yaml.")
	cmd.Flags().StringVarP(&src.artifact, "artifact", "a", "",
		"OCI URL of a bundle pushed with 'rcsync push bundle'.")
	cmd.Flags().StringVar(&src.ageIDs, "age-identities", "",
		"Path to a file containing the age identities used to decrypt the bundle.")
}

func runSyncCmd(cmd *cobra.Command, args []string) error {
	if syncArgs.empty() {
		return fmt.Errorf("-f, -k or -a is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	objects, err := buildManifests(ctx, syncArgs.sourceFlags)
	if err != nil {
		return err
	}

	resolver, err := newResolver()
	if err != nil {
		return err
	}

	opts := cfg.SyncOptions()
	opts.PruneNamespaces = syncArgs.prune
	opts.DryRun = syncArgs.dryRun
	opts.FailFast = opts.FailFast || syncArgs.failFast
	if syncArgs.concurrency > 0 {
		opts.Concurrency = syncArgs.concurrency
	}

	if opts.DryRun {
		logger.Println("planning changes for", len(objects), "objects (dry run)")
	} else {
		logger.Println("syncing", len(objects), "objects")
	}

	changeSet, err := ksync.NewSyncer(resolver, logger.Writer(), opts).Sync(ctx, objects)
	if changeSet != nil {
		logger.Println(fmt.Sprintf("%d created, %d patched, %d deleted",
			changeSet.Count(ksync.CreateAction),
			changeSet.Count(ksync.PatchAction),
			changeSet.Count(ksync.DeleteAction)))
	}
	if err != nil {
		return reportSyncError(err)
	}

	logger.Println("sync completed")
	return nil
}

// reportSyncError logs every failed unit and returns a summary error.
func reportSyncError(err error) error {
	unitErrs := ksync.UnitErrors(err)
	if len(unitErrs) == 0 {
		return err
	}
	for _, ue := range unitErrs {
		logger.Println(`✗`, ue)
	}
	return fmt.Errorf("sync failed, %d unit(s) could not be reconciled", len(unitErrs))
}
