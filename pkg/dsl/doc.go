/*
Package dsl provides a Go DSL for programmatically constructing flowcanvas workflow graphs.

It builds the same snapshot a user would draw on the canvas, using a fluent
builder instead of hand-written JSON or YAML. This is useful for seeding
workflows, unit tests and templates.

Example usage:

	b := dsl.New()

	b.Trigger("1", "Webhook").
		At(250, 50).
		Go("2")

	b.Code("2").
		Python("return {'ok': True}").
		Go("3")

	b.Action("3", "Send Email")

	snap, err := b.Build()
	// ... or start editing it right away:
	ed, err := b.Editor(flowcanvas.WithLogger(logger))
*/
package dsl
