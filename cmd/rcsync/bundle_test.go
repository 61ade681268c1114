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
	"path/filepath"
	"testing"

	"filippo.io/age"
	. "github.com/onsi/gomega"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestBundle(t *testing.T) {
	g := NewWithT(t)
	resetTestCluster()

	id := "chal-" + randStringRunes(5)
	dir, err := makeTestDir(id, testChallenge(id))
	g.Expect(err).NotTo(HaveOccurred())

	repo := fmt.Sprintf("oci://%s/%s", registryHost, id)

	t.Run("push bundle", func(t *testing.T) {
		for _, tag := range []string{"v1.0.0", "v1.1.0", "v2.0.0-rc.1"} {
			output, err := executeCommand(fmt.Sprintf("push bundle %s:%s -f %s", repo, tag, dir))
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(output).To(ContainSubstring(fmt.Sprintf("Deployment %s/web", id)))
			g.Expect(output).To(ContainSubstring("published 1 namespaces"))
		}
	})

	t.Run("list bundles", func(t *testing.T) {
		output, err := executeCommand(fmt.Sprintf("list bundles %s --semver '>=1.0.0'", repo))
		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)

		g.Expect(output).To(ContainSubstring("1.1.0"))
		g.Expect(output).To(ContainSubstring("1.0.0"))
		g.Expect(output).NotTo(ContainSubstring("2.0.0-rc.1"))

		output, err = executeCommand(fmt.Sprintf("list bundles %s", repo))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(output).To(ContainSubstring("2.0.0-rc.1"))
	})

	t.Run("pull bundle", func(t *testing.T) {
		out := filepath.Join(tmpDir, id+"-pulled.yaml")
		output, err := executeCommand(fmt.Sprintf("pull bundle %s:v1.1.0 -o %s", repo, out))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(output).To(ContainSubstring("with 1 namespaces"))

		data, err := os.ReadFile(out)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(string(data)).To(ContainSubstring("kind: IngressRoute"))
		g.Expect(string(data)).To(ContainSubstring("name: " + id))
	})

	t.Run("sync bundle", func(t *testing.T) {
		output, err := executeCommand(fmt.Sprintf("sync -a %s:v1.0.0", repo))
		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)

		g.Expect(output).To(ContainSubstring("4 created"))
		_, err = testClientset.AppsV1().Deployments(id).Get(context.Background(), "web", metav1.GetOptions{})
		g.Expect(err).NotTo(HaveOccurred())
	})

	t.Run("rejects invalid urls", func(t *testing.T) {
		_, err := executeCommand(fmt.Sprintf("push bundle %s/%s:v1 -f %s", registryHost, id, dir))
		g.Expect(err).To(MatchError(ContainSubstring("oci://")))
	})
}

func TestBundle_Encrypted(t *testing.T) {
	g := NewWithT(t)
	resetTestCluster()

	id := "chal-" + randStringRunes(5)
	dir, err := makeTestDir(id, testChallenge(id))
	g.Expect(err).NotTo(HaveOccurred())

	identity, err := age.GenerateX25519Identity()
	g.Expect(err).NotTo(HaveOccurred())
	recipientsFile := filepath.Join(tmpDir, id+"-recipients.txt")
	identitiesFile := filepath.Join(tmpDir, id+"-identities.txt")
	g.Expect(os.WriteFile(recipientsFile, []byte(identity.Recipient().String()), 0600)).To(Succeed())
	g.Expect(os.WriteFile(identitiesFile, []byte(identity.String()), 0600)).To(Succeed())

	url := fmt.Sprintf("oci://%s/%s:v1.0.0", registryHost, id)

	output, err := executeCommand(fmt.Sprintf("push bundle %s -f %s --age-recipients %s", url, dir, recipientsFile))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(output).To(ContainSubstring("bundle encrypted with"))

	_, err = executeCommand(fmt.Sprintf("pull bundle %s", url))
	g.Expect(err).To(MatchError(ContainSubstring("private key")))

	output, err = executeCommand(fmt.Sprintf("pull bundle %s --age-identities %s", url, identitiesFile))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(output).To(ContainSubstring("kind: Deployment"))

	_, err = executeCommand(fmt.Sprintf("sync -a %s --age-identities %s", url, identitiesFile))
	g.Expect(err).NotTo(HaveOccurred())
	_, err = testClientset.CoreV1().Namespaces().Get(context.Background(), id, metav1.GetOptions{})
	g.Expect(err).NotTo(HaveOccurred())
}
