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
	"io"

	"github.com/spf13/cobra"

	"github.com/redpwn/rcsync/pkg/ksync"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Diff prints the actions a sync would perform, without changing the cluster.",
	Example: `  # Preview the changes of a directory tree
  rcsync diff -f ./challenges

  # Preview the changes of a bundle
  rcsync diff -a oci://ghcr.io/org/challenges:v1.0.0
`,
	RunE: runDiffCmd,
}

type diffFlags struct {
	sourceFlags
	prune bool
}

var diffArgs = newDiffFlags()

func newDiffFlags() diffFlags {
	return diffFlags{prune: true}
}

func init() {
	addSourceFlags(diffCmd, &diffArgs.sourceFlags)
	diffCmd.Flags().BoolVar(&diffArgs.prune, "prune", true,
		"Include the deletion of the managed namespaces that are not part of the manifests.")

	rootCmd.AddCommand(diffCmd)
}

func runDiffCmd(cmd *cobra.Command, args []string) error {
	if diffArgs.empty() {
		return fmt.Errorf("-f, -k or -a is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	objects, err := buildManifests(ctx, diffArgs.sourceFlags)
	if err != nil {
		return err
	}

	resolver, err := newResolver()
	if err != nil {
		return err
	}

	opts := cfg.SyncOptions()
	opts.DryRun = true
	opts.PruneNamespaces = diffArgs.prune

	changeSet, err := ksync.NewSyncer(resolver, io.Discard, opts).Sync(ctx, objects)
	if changeSet != nil {
		for _, entry := range changeSet.Entries {
			if entry.Action == ksync.PatchAction {
				continue
			}
			rootCmd.Println(`►`, entry.String())
		}
		logger.Println(fmt.Sprintf("%d to create, %d to patch, %d to delete",
			changeSet.Count(ksync.CreateAction),
			changeSet.Count(ksync.PatchAction),
			changeSet.Count(ksync.DeleteAction)))
	}
	if err != nil {
		return reportSyncError(err)
	}

	return nil
}
