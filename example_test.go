package funnel_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/dsl"
)

// ExampleFromDocument demonstrates a run driven by intents over a document built in Go.
// This is useful for tests, embedded scenarios, or when the funnel does not live on disk.
func ExampleFromDocument() {
	// 1. Define the funnel with the DSL
	b := dsl.New()
	b.Welcome("welcome").Title("Hi!").Button("Start")
	b.Question("goal").
		Prompt("What brings you here?").
		Option("learn", "Learning").
		Branch("buy", "Buying", "lead")
	b.Message("tip").Title("Take your time.")
	b.Lead("lead").Title("Leave your contact")

	doc, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	// 2. Start the run
	ctx := context.Background()
	c, err := funnel.FromDocument(doc).Start(ctx, "example")
	if err != nil {
		log.Fatal(err)
	}
	step, _ := c.CurrentStep()
	fmt.Println("at:", step.StepID())

	// 3. Confirm the welcome screen, then pick the branching option
	if err := c.OnContinue(ctx); err != nil {
		log.Fatal(err)
	}
	if err := c.OnAnswer(ctx, "goal", domain.AnswerValue{}, "buy"); err != nil {
		log.Fatal(err)
	}
	step, _ = c.CurrentStep()
	fmt.Println("at:", step.StepID())

	// 4. Submit the lead
	sub, err := c.OnSubmitLead(ctx, domain.ContactInfo{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("phase:", c.Phase())
	for _, a := range sub.Answers {
		fmt.Printf("%s %s\n", a.QuestionText, a.Answer)
	}

	// Output:
	// at: welcome
	// at: lead
	// phase: lead_confirmed
	// What brings you here? Buying
}
