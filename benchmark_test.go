package autotranslate_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ZaguanLabs/autotranslate"
	"github.com/ZaguanLabs/autotranslate/cache"
	"github.com/ZaguanLabs/autotranslate/provider"
)

// Benchmarks for performance validation

const mediumPage = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<nav><a href="/">Home</a><a href="/about">About</a></nav>
	<main>
		<h1>Welcome to Our Site</h1>
		<p>This is a paragraph with <a href="/link" class="x">a link</a> and <b>bold</b> text.</p>
		<p>Another paragraph here.<br><img src="a.png" alt="a"></p>
		<ul>
			<li>Item one</li>
			<li>Item two</li>
			<li>Item three</li>
		</ul>
	</main>
	<footer><p>Copyright 2024</p></footer>
</body>
</html>`

func BenchmarkHashContent(b *testing.B) {
	text := "Hello World, this is a sample text for hashing"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		autotranslate.HashContent(text)
	}
}

func BenchmarkCacheKey(b *testing.B) {
	hash := "a591a6d40bf420404a011733cfb7b190d62c65bf0bcda32b57b277d9ad9f146e"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		autotranslate.CacheKey(hash, autotranslate.KindElement, "es_ES", "gpt-3.5-turbo")
	}
}

func BenchmarkInMemoryCache_Get(b *testing.B) {
	c := cache.NewInMemoryCache(3600)
	c.Set("test-key", "test-value")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("test-key")
	}
}

func BenchmarkInMemoryCache_Set(b *testing.B) {
	c := cache.NewInMemoryCache(3600)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set("test-key", "test-value")
	}
}

func BenchmarkPlan_Medium(b *testing.B) {
	for i := 0; i < b.N; i++ {
		page, _ := autotranslate.LoadPage(strings.NewReader(mediumPage))
		page.Plan(autotranslate.DefaultCharacterLimit)
	}
}

func BenchmarkMakeBatches(b *testing.B) {
	page, _ := autotranslate.LoadPage(strings.NewReader(strings.Repeat(mediumPage, 20)))
	reg := page.Registry()
	page.Plan(autotranslate.DefaultCharacterLimit)
	units := reg.Units()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		autotranslate.MakeBatches(units, 500, autotranslate.DefaultCharacterLimit)
	}
}

func BenchmarkTranslatePage_Cached(b *testing.B) {
	tr := autotranslate.NewCachingTranslator(provider.NewMockTranslator(), cache.NewInMemoryCache(3600), "mock")
	opts := autotranslate.TranslateOptions{TargetLanguage: "es_ES"}

	// Prime the cache
	page, _ := autotranslate.LoadPage(strings.NewReader(mediumPage))
	page.TranslatePage(context.Background(), tr, opts)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		page, _ := autotranslate.LoadPage(strings.NewReader(mediumPage))
		page.TranslatePage(context.Background(), tr, opts)
	}
}

func BenchmarkTranslatePage_Uncached(b *testing.B) {
	tr := provider.NewMockTranslator()
	opts := autotranslate.TranslateOptions{TargetLanguage: "es_ES"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		page, _ := autotranslate.LoadPage(strings.NewReader(mediumPage))
		page.TranslatePage(context.Background(), tr, opts)
	}
}

func BenchmarkGetDirection(b *testing.B) {
	langs := []string{"en_US", "es_ES", "ar_SA", "ja_JP", "he_IL"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		autotranslate.GetDirection(langs[i%len(langs)])
	}
}

func BenchmarkGetLanguageName(b *testing.B) {
	langs := []string{"en_US", "es_ES", "ar_SA", "ja_JP", "zh_CN"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		autotranslate.GetLanguageName(langs[i%len(langs)])
	}
}
