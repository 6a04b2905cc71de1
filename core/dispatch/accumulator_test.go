package dispatch_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliftonc/calipso/core/dispatch"
)

func TestBlockAccumulator_AppendAndGet(t *testing.T) {
	t.Parallel()
	acc := dispatch.NewBlockAccumulator()

	acc.Append("content.main", "<p>one</p>")
	acc.Append("content.main", "<p>two</p>")
	acc.Append("sidebar", "<aside/>")

	assert.Equal(t, []string{"<p>one</p>", "<p>two</p>"}, acc.Get("content.main"))
	assert.Equal(t, []string{"<aside/>"}, acc.Get("sidebar"))
	assert.Empty(t, acc.Get("missing"), "absent bucket is empty, never an error")
	assert.Equal(t, []string{"content.main", "sidebar"}, acc.Names())
}

func TestBlockAccumulator_ConcurrentAppendsUnion(t *testing.T) {
	t.Parallel()
	acc := dispatch.NewBlockAccumulator()

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			acc.Append("admin.show", fmt.Sprintf("fragment-%d", i))
		}(i)
	}
	wg.Wait()

	got := acc.Get("admin.show")
	require.Len(t, got, writers)
	seen := make(map[string]bool, writers)
	for _, frag := range got {
		seen[frag] = true
	}
	for i := 0; i < writers; i++ {
		assert.True(t, seen[fmt.Sprintf("fragment-%d", i)],
			"every appended fragment present regardless of completion order")
	}
}

func TestMenuAccumulator_WeightOrdering(t *testing.T) {
	t.Parallel()
	acc := dispatch.NewMenuAccumulator()

	acc.Append("main", dispatch.MenuEntry{Name: "about", Label: "About", Path: "/about", Weight: 20})
	acc.Append("main", dispatch.MenuEntry{Name: "home", Label: "Home", Path: "/", Weight: 0})
	acc.Append("main", dispatch.MenuEntry{Name: "blog", Label: "Blog", Path: "/section/blog", Weight: 10})

	got := acc.Get("main")
	require.Len(t, got, 3)
	assert.Equal(t, "home", got[0].Name)
	assert.Equal(t, "blog", got[1].Name)
	assert.Equal(t, "about", got[2].Name)
}

func TestMenuAccumulator_ReplacesSameName(t *testing.T) {
	t.Parallel()
	acc := dispatch.NewMenuAccumulator()

	acc.Append("admin", dispatch.MenuEntry{Name: "content", Label: "Content", Path: "/admin/content"})
	acc.Append("admin", dispatch.MenuEntry{Name: "content", Label: "Content v2", Path: "/admin/content"})

	got := acc.Get("admin")
	require.Len(t, got, 1)
	assert.Equal(t, "Content v2", got[0].Label)
}

func TestMenuAccumulator_EmptyRegion(t *testing.T) {
	t.Parallel()
	acc := dispatch.NewMenuAccumulator()
	assert.Empty(t, acc.Get("nope"))
	assert.Empty(t, acc.Regions())
}
