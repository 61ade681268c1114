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
	"sigs.k8s.io/cli-utils/pkg/object"

	"github.com/redpwn/rcsync/pkg/inventory"
	"github.com/redpwn/rcsync/pkg/kinds"
)

var getInventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Get inventory prints the managed namespaces and the catalog objects selected by their labels.",
	Long: `The get inventory command lists the managed objects found in the cluster.
When a manifest source is given, the objects missing from the manifests are marked for pruning.`,
	Example: `  # List the managed namespaces and their content
  rcsync get inventory

  # Show which objects a sync of the given directory would delete
  rcsync get inventory -f ./challenges/
`,
	RunE: runGetInventoryCmd,
}

type getInventoryFlags struct {
	sourceFlags
}

var getInventoryArgs getInventoryFlags

func init() {
	addSourceFlags(getInventoryCmd, &getInventoryArgs.sourceFlags)
	getCmd.AddCommand(getInventoryCmd)
}

func runGetInventoryCmd(cmd *cobra.Command, args []string) error {
	resolver, err := newResolver()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	inv, err := inventory.Collect(ctx, resolver, cfg.SyncOptions().ManagedBy)
	if err != nil {
		return fmt.Errorf("inventory query failed, error: %w", err)
	}

	header := []string{"namespace", "kind", "name"}
	var stale object.ObjMetadataSet
	if !getInventoryArgs.empty() {
		objects, err := buildManifests(ctx, getInventoryArgs.sourceFlags)
		if err != nil {
			return err
		}
		stale = inv.Diff(inventory.FromObjects(objects))
		header = append(header, "prune")
	}

	var rows [][]string
	for _, entry := range inv.List(resolver.Registry().Kinds()) {
		namespace := entry.Namespace
		if entry.GroupKind.Kind == kinds.NamespaceKind {
			namespace = entry.Name
		}
		row := []string{namespace, entry.GroupKind.String(), entry.Name}
		if len(header) > 3 {
			prune := "no"
			if stale.Contains(entry) {
				prune = "yes"
			}
			row = append(row, prune)
		}
		rows = append(rows, row)
	}

	printTable(rootCmd.OutOrStdout(), header, rows)
	return nil
}
