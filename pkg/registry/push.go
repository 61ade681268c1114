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

package registry

import (
	"context"
	"fmt"

	"filippo.io/age"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	gcrv1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/redpwn/rcsync/pkg/kinds"
	"github.com/redpwn/rcsync/pkg/manifest"
)

const (
	bundleFile          = "bundle.yaml"
	encryptedBundleFile = "bundle.yaml.age"
)

// Push stores the manifests as a single layer image at the given URL.
// When recipients are given the layer holds the age encrypted manifests.
// It returns the digest URL of the pushed bundle.
func Push(ctx context.Context, url, version string, objects []*unstructured.Unstructured, recipients []age.Recipient) (string, *Metadata, error) {
	ref, err := name.ParseReference(url)
	if err != nil {
		return "", nil, fmt.Errorf("parsing reference failed: %w", err)
	}

	content, err := manifest.ObjectsToYAML(objects)
	if err != nil {
		return "", nil, err
	}
	data := []byte(content)

	var namespaces []string
	for _, obj := range objects {
		if obj.GetKind() == kinds.NamespaceKind {
			namespaces = append(namespaces, obj.GetName())
		}
	}
	meta := NewMetadata(version, data, namespaces)

	fileName := bundleFile
	if len(recipients) > 0 {
		data, err = encrypt(data, recipients)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encrypt bundle with age: %w", err)
		}
		meta.Encrypted = AgeEncryptionVersion
		fileName = encryptedBundleFile
	}

	layer, err := tarLayer(fileName, data)
	if err != nil {
		return "", nil, fmt.Errorf("packing bundle failed: %w", err)
	}

	img, err := mutate.AppendLayers(empty.Image, layer)
	if err != nil {
		return "", nil, fmt.Errorf("appending content failed: %w", err)
	}
	img = mutate.Annotations(img, meta.ToAnnotations()).(gcrv1.Image)

	if err := crane.Push(img, url, craneOptions(ctx)...); err != nil {
		return "", nil, fmt.Errorf("pushing bundle failed: %w", err)
	}

	digest, err := img.Digest()
	if err != nil {
		return "", nil, fmt.Errorf("parsing digest failed: %w", err)
	}
	meta.Digest = ref.Context().Digest(digest.String()).String()

	return meta.Digest, meta, nil
}
