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
	"strings"

	"github.com/spf13/cobra"

	"github.com/redpwn/rcsync/pkg/registry"
)

var listBundlesCmd = &cobra.Command{
	Use:     "bundles",
	Aliases: []string{"bundle"},
	Short:   "List the versions of a bundle.",
	Long: `The list command fetches the tags of the specified bundle from its image repository.
If a semantic version condition is specified, the tags are filtered and ordered by semver.
For private registries, the list command uses the credentials from '~/.docker/config.json'.`,
	Example: `  rcsync list bundles <oci repository url> --semver <condition>

  # List all versions ordered by semver
  rcsync list bundles oci://ghcr.io/org/challenges --semver="*"

  # List all versions including prerelease ordered by semver
  rcsync list bundles oci://ghcr.io/org/challenges --semver=">0.0.0-0"
`,
	RunE: runListBundlesCmd,
}

type listBundlesFlags struct {
	semverExp string
}

var listBundlesArgs listBundlesFlags

func init() {
	listBundlesCmd.Flags().StringVar(&listBundlesArgs.semverExp, "semver", "",
		"Filter the results based on a semantic version constraint e.g. '1.x'.")
	listCmd.AddCommand(listBundlesCmd)
}

func runListBundlesCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a bundle repository e.g. 'oci://docker.io/user/repo'")
	}

	url, err := registry.ParseRepositoryURL(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	tags, err := registry.List(ctx, url)
	if err != nil {
		return fmt.Errorf("listing %s failed: %w", url, err)
	}

	var rows [][]string
	if exp := listBundlesArgs.semverExp; exp != "" {
		versions, err := registry.Versions(tags, exp)
		if err != nil {
			return err
		}
		for _, ver := range versions {
			rows = append(rows, []string{ver.String(), fmt.Sprintf("%s:%s", url, ver.Original())})
		}
	} else {
		for _, tag := range tags {
			// exclude cosign signatures
			if !strings.HasSuffix(tag, ".sig") {
				rows = append(rows, []string{tag, fmt.Sprintf("%s:%s", url, tag)})
			}
		}
	}

	printTable(rootCmd.OutOrStdout(), []string{"version", "url"}, rows)
	return nil
}
