/*
Package dsl provides a fluent Go builder for palette action trees.

It is an alternative to definition files when actions are known at compile time,
or when their perform callbacks are Go closures.

Example usage:

	b := dsl.New()

	b.Add("theme").Name("Change theme").Section("Preferences").Shortcut("t")
	b.Add("theme").Child("dark").Name("Dark").Do(setDark)
	b.Add("theme").Child("light").Name("Light").Perform("set-theme", map[string]any{"mode": "light"})

	b.Add("blog").Name("Blog").Keywords("posts writing").Shortcut("g b").Do(openBlog)

	// Register closures and handler names straight into an engine...
	if err := b.Register(engine); err != nil {
		log.Fatal(err)
	}

	// ...or export the declarative part as an ActionLoader.
	loader, err := b.Build()
*/
package dsl
