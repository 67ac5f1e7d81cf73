package slideshow_test

import (
	"testing"

	"adboard/models"
	"adboard/slideshow"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *slideshow.Manager {
	t.Helper()
	manager, err := slideshow.NewManager(t.TempDir())
	require.NoError(t, err)
	return manager
}

func imageNames(t *testing.T, manager *slideshow.Manager) []string {
	t.Helper()
	images, err := manager.List()
	require.NoError(t, err)
	return lo.Map(images, func(img models.SlideshowImage, _ int) string { return img.Name })
}

func TestSaveAndList(t *testing.T) {
	manager := newManager(t)

	t.Run("saved image appears in the listing", func(t *testing.T) {
		saved, err := manager.Save("team.jpg", []byte("fake image bytes"))
		require.NoError(t, err)
		assert.Equal(t, "team.jpg", saved.Name)
		assert.Equal(t, "/uploads/team.jpg", saved.Path)
		assert.NotEmpty(t, saved.SizeLabel)

		images, err := manager.List()
		require.NoError(t, err)
		require.Len(t, images, 1)
		assert.Equal(t, "team.jpg", images[0].Name)
		assert.Equal(t, int64(16), images[0].Size)
	})

	t.Run("unsupported extension rejected", func(t *testing.T) {
		_, err := manager.Save("malware.exe", []byte("nope"))
		assert.Error(t, err)
		_, err = manager.Save("animation.gif", []byte("nope"))
		assert.Error(t, err)
	})

	t.Run("path components stripped from the name", func(t *testing.T) {
		saved, err := manager.Save("../../etc/cover.png", []byte("img"))
		require.NoError(t, err)
		assert.Equal(t, "cover.png", saved.Name)
	})

	t.Run("listing is ordered by numeric prefix", func(t *testing.T) {
		fresh := newManager(t)
		_, err := fresh.Save("010-last.jpg", []byte("c"))
		require.NoError(t, err)
		_, err = fresh.Save("002-middle.jpg", []byte("b"))
		require.NoError(t, err)
		_, err = fresh.Save("001-first.jpg", []byte("a"))
		require.NoError(t, err)

		assert.Equal(t, []string{"001-first.jpg", "002-middle.jpg", "010-last.jpg"}, imageNames(t, fresh))
	})
}

func TestDelete(t *testing.T) {
	manager := newManager(t)
	_, err := manager.Save("gone.jpg", []byte("img"))
	require.NoError(t, err)

	require.NoError(t, manager.Delete("gone.jpg"))
	assert.Empty(t, imageNames(t, manager))

	assert.Error(t, manager.Delete("gone.jpg"))
}

func TestReorder(t *testing.T) {
	manager := newManager(t)
	for _, name := range []string{"001-a.jpg", "002-b.jpg", "003-c.jpg"} {
		_, err := manager.Save(name, []byte("img"))
		require.NoError(t, err)
	}

	t.Run("renames to the new order", func(t *testing.T) {
		require.NoError(t, manager.Reorder([]string{"003-c.jpg", "001-a.jpg", "002-b.jpg"}))
		assert.Equal(t, []string{"001-c.jpg", "002-a.jpg", "003-b.jpg"}, imageNames(t, manager))
	})

	t.Run("unknown name rejected", func(t *testing.T) {
		assert.Error(t, manager.Reorder([]string{"001-c.jpg", "002-a.jpg", "ghost.jpg"}))
	})

	t.Run("incomplete name set rejected", func(t *testing.T) {
		assert.Error(t, manager.Reorder([]string{"001-c.jpg"}))
	})
}
