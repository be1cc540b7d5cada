/*
Package runner drives a funnel session through an interactive or structured interface.

The Runner renders the current page through an IOHandler, collects answers, checks them with an
Interceptor (declared validations by default), submits them and persists the new state through a
session.Manager. TextHandler serves terminals; JSONHandler speaks JSON Lines for host programs.

# Usage

	t, _ := eng.Start(ctx, "quiz", funnel.StartOptions{})

	r := runner.NewRunner(
		runner.WithSessions(session.NewManager(store)),
		runner.WithInputHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx, t); err != nil {
		log.Fatal(err)
	}
*/
package runner
