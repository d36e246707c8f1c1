/*
Package flowcanvas is the headless editing core of a visual workflow editor.

Users drag node types (triggers, actions, custom code blocks) onto a canvas,
connect them with directed edges and configure custom code nodes through a
modal dialog. flowcanvas owns the graph document and its mutation rules; a
renderer only draws the model it is handed and reports gestures back.

# Concept

The Editor serializes every operation on one document:

  - Palette actions go through the node factory (fresh id, placement, default payload).
  - Connect gestures go through the connection rule (endpoints exist, deterministic edge ids).
  - The code dialog edits a draft and writes the node once, on save.

Storage, transports and rendering surfaces are adapters around the Editor
(see pkg/adapters and pkg/workspace).

# Usage

	ed, err := flowcanvas.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	code, _ := ed.AddNode(ctx, domain.KindCustomCode, "", factory.Viewport{})
	_, _, _ = ed.Connect(ctx, domain.ConnectRequest{Source: "1", Target: code.ID})

	_, _ = ed.OpenEditor(ctx, code.ID)
	_ = ed.SetDraftCode("print('hi')")
	_ = ed.SetDraftLanguage(domain.LanguagePython)
	_, _ = ed.SaveEditor(ctx)

	snap := ed.Snapshot()
*/
package flowcanvas
