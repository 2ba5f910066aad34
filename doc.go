/*
Package funnel runs interactive lead-capture funnels: a linear list of welcome,
question, message and lead capture steps with optional per-option branching.

It separates the document (what to ask), the run (where the respondent is and
what they answered) and the host (terminal, HTTP or MCP), so the same funnel can
be embedded in any interface.

# Key Features

  - Deterministic Navigation: Given the same document, answers and history, the next step is always reproducible.
  - Hexagonal Architecture: The controller is decoupled from adapters (storage, persistence service, generator).
  - Durable Sessions: Runs are snapshots that survive across requests in Redis, SQLite, JSON files or memory.
  - Never Lose a Lead: Submissions are kept locally even when the persistence service fails.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/funnel"
		"github.com/aretw0/funnel/pkg/controller"
		"github.com/aretw0/funnel/pkg/domain"
	)

	func main() {
		f, err := funnel.New("./quiz.yaml")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		c, err := f.Start(ctx, "session-123")
		if err != nil {
			log.Fatal(err)
		}

		// Main Loop: View -> Intent
		for !c.IsCompleted() {
			view := c.View()
			log.Println("Step:", string(view.Step))

			// In a real app, the answer comes from the respondent.
			answer := domain.TextAnswer("user input")
			if err := c.Dispatch(ctx, controller.Intent{Type: controller.IntentAnswer, Answer: &answer}); err != nil {
				log.Fatal(err)
			}
		}
	}
*/
package funnel
