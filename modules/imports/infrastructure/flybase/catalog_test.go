package flybase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_LookupByID(t *testing.T) {
	catalog := NewOfflineCatalog()

	t.Run("with repository hint", func(t *testing.T) {
		remote, err := catalog.LookupByID(context.Background(), "3605", "bdsc")
		require.NoError(t, err)
		require.NotNil(t, remote)
		assert.Equal(t, "bdsc", remote.Repository)
		assert.Equal(t, "w[1118]; Dr[1]/TM3, Sb[1]", remote.Genotype)
		assert.Equal(t, "Bloomington Drosophila Stock Center", remote.Metadata["repository_name"])
		assert.Equal(t, "FBst0003605", remote.Metadata["flybase_id"])
		assert.Contains(t, remote.Metadata["repository_url"], "3605")
	})

	t.Run("without hint searches all repositories", func(t *testing.T) {
		remote, err := catalog.LookupByID(context.Background(), "v10004", "")
		require.NoError(t, err)
		require.NotNil(t, remote)
		assert.Equal(t, "vdrc", remote.Repository)
	})

	t.Run("wrong repository misses", func(t *testing.T) {
		remote, err := catalog.LookupByID(context.Background(), "3605", "vdrc")
		require.NoError(t, err)
		assert.Nil(t, remote)
	})

	t.Run("unknown id misses", func(t *testing.T) {
		remote, err := catalog.LookupByID(context.Background(), "999999", "")
		require.NoError(t, err)
		assert.Nil(t, remote)
	})

	t.Run("blank id misses", func(t *testing.T) {
		remote, err := catalog.LookupByID(context.Background(), "  ", "bdsc")
		require.NoError(t, err)
		assert.Nil(t, remote)
	})
}

func TestCatalog_FindByGenotype(t *testing.T) {
	catalog := NewOfflineCatalog()

	t.Run("exact match ranks first", func(t *testing.T) {
		matches, err := catalog.FindByGenotype(context.Background(), "w[1118]", 5)
		require.NoError(t, err)
		require.NotEmpty(t, matches)
		assert.Equal(t, "5905", matches[0].ExternalID)
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		matches, err := catalog.FindByGenotype(context.Background(), "  W[1118]  ", 5)
		require.NoError(t, err)
		require.NotEmpty(t, matches)
		assert.Equal(t, "5905", matches[0].ExternalID)
	})

	t.Run("semicolon and comma separators are equivalent", func(t *testing.T) {
		matches, err := catalog.FindByGenotype(context.Background(), "w[1118], Dr[1]/TM3, Sb[1]", 5)
		require.NoError(t, err)
		require.NotEmpty(t, matches)
		assert.Equal(t, "3605", matches[0].ExternalID)
	})

	t.Run("result cap respected", func(t *testing.T) {
		matches, err := catalog.FindByGenotype(context.Background(), "w[1118]", 1)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("empty query", func(t *testing.T) {
		matches, err := catalog.FindByGenotype(context.Background(), "", 5)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestCatalog_Replace(t *testing.T) {
	catalog := NewCatalog()
	assert.Equal(t, 0, catalog.Len())

	catalog.Replace([]Stock{
		{ExternalID: "1", Genotype: "a", Repository: "bdsc"},
		{ExternalID: "2", Genotype: "b"},
		{Genotype: "dropped, no id"},
	}, "FB2026_02")

	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, "FB2026_02", catalog.DataVersion())

	// Entries without a repository land in the "other" bucket.
	remote, err := catalog.LookupByID(context.Background(), "2", "other")
	require.NoError(t, err)
	require.NotNil(t, remote)
	assert.Equal(t, "FB2026_02", remote.Metadata["data_version"])
}
