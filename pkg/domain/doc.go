/*
Package domain contains the core models of the funnel runtime.

It defines the authored Step Document, the answers collected during a run, the
navigation position and the finalized lead Submission. This package is kept pure
and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Document: ordered sequence of Steps plus presentation settings.
  - Step: sealed union of Welcome, Question, Message and LeadCapture.
  - AnswerStore: immutable map from question id to AnswerValue.
  - NavigationState: current step, visited path and completion flag.
  - Submission: contact info plus analyzed answers, remote or local.
*/
package domain
