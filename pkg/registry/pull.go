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
	"bytes"
	"context"
	"fmt"

	"filippo.io/age"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/redpwn/rcsync/pkg/manifest"
)

// Pull fetches the bundle from the given URL, decrypts it when needed,
// verifies its checksum and decodes the manifests.
func Pull(ctx context.Context, url string, identities []age.Identity) ([]*unstructured.Unstructured, *Metadata, error) {
	ref, err := name.ParseReference(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing reference failed: %w", err)
	}

	img, err := crane.Pull(url, craneOptions(ctx)...)
	if err != nil {
		return nil, nil, err
	}

	imgManifest, err := img.Manifest()
	if err != nil {
		return nil, nil, err
	}

	meta, err := GetMetadata(imgManifest.Annotations)
	if err != nil {
		return nil, nil, err
	}

	digest, err := img.Digest()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing digest failed: %w", err)
	}
	meta.Digest = ref.Context().Digest(digest.String()).String()

	if meta.Encrypted != "" && len(identities) == 0 {
		return nil, meta, fmt.Errorf("encrypted bundle, you need to supply a private key for decryption")
	}

	layers, err := img.Layers()
	if err != nil {
		return nil, nil, err
	}
	if len(layers) < 1 {
		return nil, nil, fmt.Errorf("no layers found in bundle")
	}

	blob, err := layers[0].Uncompressed()
	if err != nil {
		return nil, nil, err
	}
	defer blob.Close()

	data, err := untarFile(blob)
	if err != nil {
		return nil, nil, err
	}

	if meta.Encrypted == AgeEncryptionVersion {
		data, err = decrypt(data, identities)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decrypt bundle: %w", err)
		}
	}

	if meta.Checksum != checksum(data) {
		return nil, nil, fmt.Errorf("checksum mismatch")
	}

	objects, err := manifest.ReadObjects(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decoding bundle failed: %w", err)
	}

	return objects, meta, nil
}
