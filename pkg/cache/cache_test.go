package cache

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppflow/cppflow/pkg/ir"
)

func TestGetSet(t *testing.T) {
	c := New(Options{})
	c.Set("a", []byte("one"))

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, []byte("one"), val)

	_, found = c.Get("missing")
	assert.False(t, found)
}

func TestSetOverwrite(t *testing.T) {
	c := New(Options{})
	c.Set("a", []byte("one"))
	c.Set("a", []byte("longer value"))

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, []byte("longer value"), val)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(len("longer value")), c.CurrentBytes())
}

func TestLRUEvictionByCount(t *testing.T) {
	var evicted []string
	c := New(Options{
		MaxEntries: 2,
		OnEvict:    func(key string, _ []byte) { evicted = append(evicted, key) },
	})

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Get("a") // refresh a so b becomes least recently used
	c.Set("c", []byte("3"))

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"b"}, evicted)

	_, found := c.Get("b")
	assert.False(t, found)
	_, found = c.Get("a")
	assert.True(t, found)
}

func TestLRUEvictionByBytes(t *testing.T) {
	c := New(Options{MaxBytes: 10})
	c.Set("a", []byte("12345"))
	c.Set("b", []byte("12345"))
	c.Set("c", []byte("12345"))

	assert.LessOrEqual(t, c.CurrentBytes(), int64(10))
	_, found := c.Get("a")
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	c := New(Options{})
	c.Set("a", []byte("one"))
	c.Delete("a")
	c.Delete("a") // second delete is a no-op

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.CurrentBytes())
}

func TestStats(t *testing.T) {
	c := New(Options{})
	c.Set("a", []byte("one"))
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, c.HitRate(), 1e-9)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := New(Options{})
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key%d", i), []byte(fmt.Sprintf("value%d", i)))
	}

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(Options{})
	require.NoError(t, restored.Load(&buf))

	assert.Equal(t, c.Len(), restored.Len())
	for i := 0; i < 5; i++ {
		val, found := restored.Get(fmt.Sprintf("key%d", i))
		require.True(t, found, "key%d missing after load", i)
		assert.Equal(t, []byte(fmt.Sprintf("value%d", i)), val)
	}
}

func TestLoadPreservesRecencyOrder(t *testing.T) {
	c := New(Options{})
	c.Set("old", []byte("1"))
	c.Set("new", []byte("2"))
	c.Get("old") // old is now most recent

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(Options{MaxEntries: 1})
	require.NoError(t, restored.Load(&buf))
	restored.Set("extra", []byte("3"))
	restored.Set("extra2", []byte("4"))

	// the least recently used entry goes first
	_, found := restored.Get("new")
	assert.False(t, found)
}

func TestAnalysisCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()

	c, err := OpenAnalysisCache(dir, Options{})
	require.NoError(t, err)

	funcs := []*ir.FunctionIR{
		{ID: "f1", Name: "app::run", Signature: "void run()", File: "app/run.cpp", Line: 3, Complexity: 2},
	}
	key := Key("app/run.cpp", []byte("void run() {}"))
	require.NoError(t, c.PutFunctions(key, funcs))
	require.NoError(t, c.Flush())

	reopened, err := OpenAnalysisCache(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())

	got, found := reopened.GetFunctions(key)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "app::run", got[0].Name)
	assert.Equal(t, 2, got[0].Complexity)
}

func TestAnalysisCacheKeyChangesWithContent(t *testing.T) {
	a := Key("a.cpp", []byte("int main() {}"))
	b := Key("a.cpp", []byte("int main() { return 1; }"))
	c := Key("b.cpp", []byte("int main() {}"))

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, Key("a.cpp", []byte("int main() {}")))
}

func TestAnalysisCacheWithoutDir(t *testing.T) {
	c, err := OpenAnalysisCache("", Options{})
	require.NoError(t, err)
	require.NoError(t, c.PutFunctions("k", nil))
	require.NoError(t, c.Flush())
}

func BenchmarkCacheGet(b *testing.B) {
	c := New(Options{MaxEntries: 10000})
	payload := bytes.Repeat([]byte("x"), 100)
	for i := 0; i < 1000; i++ {
		c.Set(fmt.Sprintf("key%d", i), payload)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key999")
	}
}

func BenchmarkCacheSet(b *testing.B) {
	c := New(Options{MaxEntries: 10000})
	payload := bytes.Repeat([]byte("x"), 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key%d", i), payload)
	}
}
