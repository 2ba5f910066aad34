/*
Package dsl provides a Go DSL for programmatically constructing funnel documents.

It lets developers define funnels with a type-safe, fluent builder instead of
authoring YAML or JSON by hand. This is useful for generated funnels, unit tests
and IDE autocompletion.

Example usage:

	package main

	import (
		"github.com/aretw0/funnel/pkg/dsl"
	)

	func main() {
		b := dsl.New()

		b.Welcome("welcome").
			Title("Find your plan").
			Button("Start")

		b.Question("goal").
			Prompt("What is your goal?").
			Buttons().
			Option("grow", "Grow my audience").
			Branch("sell", "Sell more", "lead")

		b.Lead("lead").
			Title("Leave your contact").
			Button("Send")

		// The resulting document can be passed to funnel.FromDocument(...)
		doc, err := b.Build()
		// ...
	}
*/
package dsl
