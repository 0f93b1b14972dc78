//go:build e2e && unix

package main

import (
	"os"
	"path/filepath"
)

const rosterYAML = `patients:
  - id: "7"
    patientId: P-000007
    firstName: John
    lastName: Doe
    dateOfBirth: "1980-04-02"
    phoneNumber: 555-0100
    email: john.doe@example.org
    address: 12 Harbour Street, Springfield
  - id: "3"
    patientId: P-000003
    firstName: Jane
    lastName: Roe
    phoneNumber: 555-0199
    email: jane@example.org
  - id: "9"
    patientId: P-000009
    firstName: Johanna
    lastName: Smith
    phoneNumber: 555-0142
`

// CreateTestWorkspace creates a temporary home for the app under test
func (tf *TUITestFramework) CreateTestWorkspace() (string, error) {
	tmpDir := tf.t.TempDir()
	tf.workspace = tmpDir
	return tmpDir, nil
}

// WriteRoster writes the local patient roster into the workspace
func (tf *TUITestFramework) WriteRoster(content string) (string, error) {
	path := filepath.Join(tf.workspace, "roster.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// LocalArgs are the flags for a run against the roster with recents kept
// in the workspace
func (tf *TUITestFramework) LocalArgs(roster string) []string {
	return []string{
		"--roster", roster,
		"--storage", "sqlite",
		"--storage-path", filepath.Join(tf.workspace, "recents.sqlite"),
	}
}
