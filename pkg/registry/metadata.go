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
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

const (
	VersionAnnotation    = "rcsync.dev/version"
	ChecksumAnnotation   = "rcsync.dev/checksum"
	CreatedAnnotation    = "rcsync.dev/created"
	NamespacesAnnotation = "rcsync.dev/namespaces"
	EncryptedAnnotation  = "rcsync.dev/encrypted"
	AgeEncryptionVersion = "age-encryption.org/v1"
)

// Metadata is stored as annotations on the bundle manifest.
type Metadata struct {
	Version    string   `json:"version"`
	Checksum   string   `json:"checksum"`
	Created    string   `json:"created"`
	Namespaces []string `json:"namespaces,omitempty"`
	Encrypted  string   `json:"encrypted,omitempty"`
	Digest     string   `json:"digest,omitempty"`
}

// NewMetadata returns the metadata of a bundle holding the given manifests.
func NewMetadata(version string, data []byte, namespaces []string) *Metadata {
	return &Metadata{
		Version:    version,
		Checksum:   checksum(data),
		Created:    time.Now().UTC().Format(time.RFC3339),
		Namespaces: namespaces,
	}
}

func (m *Metadata) ToAnnotations() map[string]string {
	annotations := map[string]string{
		VersionAnnotation:    m.Version,
		ChecksumAnnotation:   m.Checksum,
		CreatedAnnotation:    m.Created,
		NamespacesAnnotation: strings.Join(m.Namespaces, ","),
	}

	if m.Encrypted != "" {
		annotations[EncryptedAnnotation] = m.Encrypted
	}
	return annotations
}

func GetMetadata(annotations map[string]string) (*Metadata, error) {
	m := Metadata{}
	for key, field := range map[string]*string{
		VersionAnnotation:  &m.Version,
		ChecksumAnnotation: &m.Checksum,
		CreatedAnnotation:  &m.Created,
	} {
		value, ok := annotations[key]
		if !ok {
			return nil, fmt.Errorf("'%s' annotation not found", key)
		}
		*field = value
	}

	if namespaces := annotations[NamespacesAnnotation]; namespaces != "" {
		m.Namespaces = strings.Split(namespaces, ",")
	}
	m.Encrypted = annotations[EncryptedAnnotation]

	return &m, nil
}

func checksum(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
