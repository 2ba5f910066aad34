/*
Package runner implements the terminal execution loop for funnel runs.

It acts as the bridge between the controller and a respondent at a terminal or
a driving process. The runner persists snapshots so an interrupted run can be
resumed, reads intents through pluggable handlers and stops cleanly on Ctrl+C.

# Key Components

  - Runner: The loop that renders a Frame, reads an intent and dispatches it.
  - IOHandler: Decouples how a run is presented (TextHandler, JSONHandler).
  - IntentInterceptor: Policy applied before an intent reaches the controller.
  - SanitizeInput: The input policy shared by every host.

# Usage

	r := runner.NewRunner(
		runner.WithSessionID("user-1"),
		runner.WithStore(store),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, c); err != nil {
		log.Fatal(err)
	}
*/
package runner
