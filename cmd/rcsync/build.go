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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/kustomize/api/krusty"
	kustypes "sigs.k8s.io/kustomize/api/types"
	"sigs.k8s.io/kustomize/kyaml/filesys"

	"github.com/redpwn/rcsync/pkg/manifest"
	"github.com/redpwn/rcsync/pkg/registry"
)

// sourceFlags are the manifest sources shared by the sync, diff and push commands.
type sourceFlags struct {
	filename  []string
	kustomize string
	artifact  string
	ageIDs    string
}

func (s sourceFlags) empty() bool {
	return len(s.filename) == 0 && s.kustomize == "" && s.artifact == ""
}

// buildManifests reads the manifests from a bundle, a kustomize overlay, and plain files.
// A single '-' filename reads the manifests from stdin.
func buildManifests(ctx context.Context, src sourceFlags) ([]*unstructured.Unstructured, error) {
	objects := make([]*unstructured.Unstructured, 0)

	if src.artifact != "" {
		url, err := registry.ParseURL(src.artifact)
		if err != nil {
			return nil, err
		}

		identities, err := registry.ParseAgeIdentities(src.ageIDs)
		if err != nil {
			return nil, fmt.Errorf("loading age identities failed: %w", err)
		}

		logger.Println("pulling bundle", url)
		objs, meta, err := registry.Pull(ctx, url, identities)
		if err != nil {
			return nil, fmt.Errorf("pulling %s failed: %w", url, err)
		}
		logger.Println("using bundle", meta.Digest)
		objects = append(objects, objs...)
	}

	if src.kustomize != "" {
		data, err := buildKustomization(src.kustomize)
		if err != nil {
			return nil, err
		}

		objs, err := manifest.ReadObjects(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.kustomize, err)
		}
		objects = append(objects, objs...)
	}

	if len(src.filename) == 1 && src.filename[0] == "-" {
		objs, err := manifest.ReadObjects(bufio.NewReader(rootCmd.InOrStdin()))
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return append(objects, objs...), nil
	}

	if len(src.filename) > 0 {
		files, err := scan(src.filename)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			f, err := os.Open(file)
			if err != nil {
				return nil, err
			}

			objs, err := manifest.ReadObjects(bufio.NewReader(f))
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			objects = append(objects, objs...)
		}
	}

	return objects, nil
}

func scan(paths []string) ([]string, error) {
	var files []string

	for _, in := range paths {
		fi, err := os.Stat(in)
		if err != nil {
			return nil, err
		}

		switch mode := fi.Mode(); {
		case mode.IsDir():
			m, err := scanRec(in)
			if err != nil {
				return nil, err
			}
			files = append(files, m...)
		case mode.IsRegular():
			if matchExt(fi.Name()) {
				files = append(files, in)
			}
		}
	}

	return files, nil
}

// scanRec walks the directory tree in lexical order, kustomization files are left to the -k flag.
func scanRec(dir string) ([]string, error) {
	var files []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		p := path.Join(dir, entry.Name())
		if entry.IsDir() {
			m, err := scanRec(p)
			if err != nil {
				return nil, err
			}
			files = append(files, m...)
			continue
		}
		if matchExt(entry.Name()) {
			files = append(files, p)
		}
	}
	return files, nil
}

func matchExt(f string) bool {
	ext := path.Ext(f)
	return ext == ".yaml" || ext == ".yml"
}

var kustomizeBuildMutex sync.Mutex

func buildKustomization(base string) ([]byte, error) {
	kustomizeBuildMutex.Lock()
	defer kustomizeBuildMutex.Unlock()

	kfile := path.Join(base, "kustomization.yaml")

	fs := filesys.MakeFsOnDisk()
	if !fs.Exists(kfile) {
		return nil, fmt.Errorf("%s not found", kfile)
	}

	if path.IsAbs(base) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		base, err = filepath.Rel(wd, base)
		if err != nil {
			return nil, err
		}
	}

	buildOptions := &krusty.Options{
		LoadRestrictions: kustypes.LoadRestrictionsNone,
		PluginConfig:     kustypes.DisabledPluginConfig(),
	}

	k := krusty.MakeKustomizer(buildOptions)
	m, err := k.Run(fs, base)
	if err != nil {
		return nil, err
	}

	return m.AsYaml()
}
