package selection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kitbot/shop/catalog"
)

func variants(t *testing.T) (*catalog.Variant, *catalog.Variant) {
	t.Helper()
	p := catalog.NewProduct("Foo")
	v1, err := p.AddVariant("V1", "", 100)
	require.NoError(t, err)
	v2, err := p.AddVariant("V2", "", 200)
	require.NoError(t, err)
	return v1, v2
}

func TestStoreRequiresInitialization(t *testing.T) {
	s := NewStore()
	v1, _ := variants(t)

	_, err := s.List(1)
	require.ErrorIs(t, err, ErrUserNotFound)
	require.ErrorIs(t, s.Add(1, v1), ErrUserNotFound)
	require.ErrorIs(t, s.Remove(1, v1), ErrUserNotFound)
	require.ErrorIs(t, s.Delete(1), ErrUserNotFound)
	_, err = s.Pop(1)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorePopTakesLastEntry(t *testing.T) {
	s := NewStore()
	v1, v2 := variants(t)
	s.Create(3)

	_, err := s.Pop(3)
	require.ErrorIs(t, err, ErrElementNotFound)

	for _, v := range []*catalog.Variant{v1, v2, v1} {
		require.NoError(t, s.Add(3, v))
	}
	got, err := s.Pop(3)
	require.NoError(t, err)
	assert.Same(t, v1, got)

	list, err := s.List(3)
	require.NoError(t, err)
	assert.Equal(t, []*catalog.Variant{v1, v2}, list)
}

func TestStoreKeepsInsertionOrderAndDuplicates(t *testing.T) {
	s := NewStore()
	v1, v2 := variants(t)
	s.Create(7)

	require.NoError(t, s.Add(7, v2))
	require.NoError(t, s.Add(7, v1))
	require.NoError(t, s.Add(7, v2))

	list, err := s.List(7)
	require.NoError(t, err)
	assert.Equal(t, []*catalog.Variant{v2, v1, v2}, list)

	require.NoError(t, s.Remove(7, v2))
	list, err = s.List(7)
	require.NoError(t, err)
	assert.Equal(t, []*catalog.Variant{v1, v2}, list)
}

func TestStoreAddThenRemoveRestoresList(t *testing.T) {
	s := NewStore()
	v1, v2 := variants(t)
	s.Create(1)
	require.NoError(t, s.Add(1, v1))

	before, err := s.List(1)
	require.NoError(t, err)

	require.NoError(t, s.Add(1, v2))
	require.NoError(t, s.Remove(1, v2))

	after, err := s.List(1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStoreRemoveMissing(t *testing.T) {
	s := NewStore()
	v1, v2 := variants(t)
	s.Create(1)
	require.NoError(t, s.Add(1, v1))

	require.ErrorIs(t, s.Remove(1, v2), ErrElementNotFound)

	list, err := s.List(1)
	require.NoError(t, err)
	assert.Equal(t, []*catalog.Variant{v1}, list)
}

func TestStoreCreateResetsAndEnsureKeeps(t *testing.T) {
	s := NewStore()
	v1, _ := variants(t)

	assert.True(t, s.Ensure(1))
	require.NoError(t, s.Add(1, v1))
	assert.False(t, s.Ensure(1))

	list, err := s.List(1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	s.Create(1)
	list, err = s.List(1)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Delete(1))
	assert.Equal(t, 0, s.Users())
}

func TestStoreListReturnsCopy(t *testing.T) {
	s := NewStore()
	v1, v2 := variants(t)
	s.Create(1)
	require.NoError(t, s.Add(1, v1))

	list, err := s.List(1)
	require.NoError(t, err)
	list[0] = v2

	again, err := s.List(1)
	require.NoError(t, err)
	assert.Same(t, v1, again[0])
}

func TestStoreConcurrentAdds(t *testing.T) {
	s := NewStore()
	v1, _ := variants(t)
	s.Create(1)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Add(1, v1)
		}()
	}
	wg.Wait()

	list, err := s.List(1)
	require.NoError(t, err)
	assert.Len(t, list, 50)
}
