/*
Package dsl provides a fluent builder for funnel definitions.

It is an alternative to YAML or JSON documents for tests and for applications that
generate funnels in code.

	def := dsl.New("quiz").
		Number("score", 0).
		Page("p1").
		Choice("plan", "Pick a plan", "basic", "pro").
		When("fast-track", domain.Compare(domain.OpEq, domain.BlockRef("plan"), domain.Constant("pro")),
			domain.JumpTo("p3"), domain.SetVariable("score", 10)).
		Page("p2").Text("company", "Company").
		Page("p3").Text("email", "Email", dsl.Required(), dsl.Email()).
		Done().
		Definition()
*/
package dsl
