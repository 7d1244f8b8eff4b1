package sidecar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathFor_DottedStoreType(t *testing.T) {
	got := PathFor("/data", "github.repos", "github.repos.org-repo.core")
	assert.Equal(t, "/data/github/repos/github.repos.org-repo.core.emb.gz", got)
}

func TestPathFor_FlatStoreType(t *testing.T) {
	got := PathFor("/data", "notes", "notes.deploy.section1")
	assert.Equal(t, "/data/notes/notes.deploy.section1.emb.gz", got)
}
