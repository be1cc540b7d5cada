/*
Package funnel is a conditional-logic engine for multi-page funnels, quizzes and forms.

A funnel is an ordered list of pages holding blocks (questions or content), a list of rules
and a set of typed variables. After each submitted page the engine evaluates the rules attached
to the pages visited so far: they hide or show pages and blocks, write variables and jump ahead.
Navigation then picks the next visible page, and going back skips pages that are now hidden.

# Architecture

The core (internal/runtime) is pure: every transition takes a State snapshot and returns a new one.
Around it sit ports for definition loading, session storage and analytics delivery, with adapters
for memory, files, loam repositories, Redis and watermill. Analytics events and answer records are
delivered asynchronously and never gate navigation.

# Usage

	eng, err := funnel.New("./funnels")
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close(context.Background())

	t, err := eng.Start(ctx, "quiz", funnel.StartOptions{VisitorID: "v-42"})
	if err != nil {
		log.Fatal(err)
	}

	view, _ := t.View()
	next, err := t.SubmitPage(ctx, view.Page.ID, map[string]any{"plan": "pro"})

Answers are not validated by the engine: presentation layers check them with pkg/answers before
submitting. Sessions are persisted by saving Tracker.State and resumed with Engine.Resume.
*/
package funnel
