// Package autotranslate translates a web page's visible text in place using a
// large language model, keeping the original content so the page can be
// switched back and forth between the original and the translation.
//
// The page is held as an in-memory HTML node tree. Translation units (target
// elements such as paragraphs, links, list items and headings) are collected,
// minimized into a compact placeholder-tagged form, grouped into batches under
// a character budget and sent concurrently to a BatchTranslator. Each response
// is restored into the tree as it arrives: attributes are always taken from the
// original markup, never from model output.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/autotranslate"
//	    "github.com/ZaguanLabs/autotranslate/provider"
//	)
//
//	func main() {
//	    page, err := autotranslate.LoadPage(strings.NewReader(input))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    p := provider.NewOpenAIProvider(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    summary, err := page.TranslatePage(context.Background(), p, autotranslate.TranslateOptions{
//	        TargetLanguage: "es_ES",
//	        CharacterLimit: 4000,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(summary.Translated)
//
//	    page.DisplayOriginal()   // back to the source text
//	    page.DisplayTranslated() // and to the translation again
//	}
package autotranslate
