package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "installer.msi", "installer.msi"},
		{"spaces", "My Installer.exe", "My_Installer.exe"},
		{"traversal", "../../etc/passwd", ".._.._etc_passwd"},
		{"allowed punctuation", "pkg_1.2+build-3", "pkg_1.2+build-3"},
		{"unicode", "café.msi", "caf_.msi"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeName(tt.in))
		})
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("Contoso Ltd", "Contoso.App", "1.0.0", "x64", "machine.msi")
	assert.Equal(t, "packages/Contoso_Ltd/Contoso.App/1.0.0/x64/machine.msi", key)

	// Same tuple, same key.
	assert.Equal(t, key, ObjectKey("Contoso Ltd", "Contoso.App", "1.0.0", "x64", "machine.msi"))
}

func TestStoredFileName(t *testing.T) {
	tests := []struct {
		name   string
		scope  string
		upload string
		want   string
	}{
		{"msi upload", "machine", "setup.msi", "machine.msi"},
		{"multi dot", "user", "my.cool.installer.exe", "user.exe"},
		{"no extension", "user", "setup", "user"},
		{"both scope", "both", "tool.zip", "both.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StoredFileName(tt.scope, tt.upload))
		})
	}
}
