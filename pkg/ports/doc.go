/*
Package ports defines the driven ports (interfaces) of the funnel runtime.

These interfaces decouple the runtime from external implementations, allowing
it to work with various persistence services, storage backends and generators.

# Key Interfaces

  - LeadService: Creates leads on the remote persistence service.
  - FunnelSource: Loads published funnels by id.
  - Generator: Produces a document from a natural language prompt.
  - SubmissionStore: Local record of finalized submissions (the results list).
  - SessionStore: Persists run snapshots for hosts that keep runs across requests.
  - SessionLocker: Serializes intents on one session across server replicas.
  - SubmissionPublisher: Notifies downstream consumers of confirmed leads.
*/
package ports
