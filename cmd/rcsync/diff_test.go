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
	"fmt"
	"testing"

	. "github.com/onsi/gomega"
)

func TestDiff(t *testing.T) {
	g := NewWithT(t)
	resetTestCluster()

	id := "chal-" + randStringRunes(5)
	dir, err := makeTestDir(id, testChallenge(id))
	g.Expect(err).NotTo(HaveOccurred())

	t.Run("plans creation", func(t *testing.T) {
		output, err := executeCommand(fmt.Sprintf("diff -f %s", dir))
		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)

		g.Expect(output).To(ContainSubstring("► CREATE Namespace " + id))
		g.Expect(output).To(ContainSubstring(fmt.Sprintf("► CREATE Deployment %s/web", id)))
		g.Expect(output).To(ContainSubstring("4 to create, 0 to patch, 0 to delete"))

		for _, action := range testClientset.Actions() {
			g.Expect(action.GetVerb()).To(Equal("list"))
		}
		for _, action := range testDynamicClient.Actions() {
			g.Expect(action.GetVerb()).To(Equal("list"))
		}
	})

	t.Run("plans deletion", func(t *testing.T) {
		_, err := executeCommand(fmt.Sprintf("sync -f %s", dir))
		g.Expect(err).NotTo(HaveOccurred())

		dir, err := makeTestDir(id, testChallenge(id)[:2])
		g.Expect(err).NotTo(HaveOccurred())

		output, err := executeCommand(fmt.Sprintf("diff -f %s", dir))
		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)

		g.Expect(output).To(ContainSubstring(fmt.Sprintf("► DELETE Service %s/web", id)))
		g.Expect(output).To(ContainSubstring(fmt.Sprintf("► DELETE IngressRoute %s/web", id)))
		g.Expect(output).NotTo(ContainSubstring("► PATCH"))
		g.Expect(output).To(ContainSubstring("0 to create, 2 to patch, 2 to delete"))
	})
}
