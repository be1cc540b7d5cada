/*
Package domain contains the core domain models of the funnel engine.

It defines the declarative funnel definition (Pages, Blocks, Rules, Variables) and
the runtime snapshot of a respondent's pass through it (State). This package is kept
pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Page: An ordered step of a funnel, holding Blocks.
  - Block: A question or content unit. Only input blocks produce answers.
  - Condition: A boolean expression tree over answers, variables and constants.
  - Rule: Binds a Condition to ordered Actions (hide, show, jump, set_variable) for a page.
  - State: The snapshot of one session (current page, answers, variables, visited pages).
  - Event: A typed analytics event emitted while a respondent progresses.
*/
package domain
