// Package schema checks values written to funnel variables against their declared type.
//
// Variables are declared as "string", "number" or "boolean":
//
//	t, err := schema.ParseType("number")
//	s := schema.Schema{"score": t}
//	if err := schema.Check(s, "score", "ten"); err != nil {
//	    // *schema.VariableError
//	}
//
// Numbers are accepted in every Go numeric kind and as json.Number, since answers
// and definitions arrive through JSON, YAML and Redis round-trips. NormalizeNumber
// yields the float64 used for comparisons.
package schema
