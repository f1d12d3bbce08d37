package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListWorkspaceFiles_IncludesUntrackedAndSkipsIgnored(t *testing.T) {
	dir := t.TempDir()
	setupGitRepo(t, dir)
	ctx := context.Background()

	createFile(t, dir, ".gitignore", "dist/\n")
	createFile(t, dir, "apps/a/src/index.ts", "import '@scope/b';\n")
	gitAdd(t, dir, ".")
	gitCommit(t, dir, "initial")

	createFile(t, dir, "libs/b/src/index.ts", "export const b = 1;\n")
	createFile(t, dir, "dist/out.js", "built\n")

	files, err := ListWorkspaceFiles(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, []string{".gitignore", "apps/a/src/index.ts", "libs/b/src/index.ts"}, files)
}

func TestIsWorkTree(t *testing.T) {
	dir := t.TempDir()
	setupGitRepo(t, dir)

	assert.True(t, IsWorkTree(context.Background(), dir))
}
