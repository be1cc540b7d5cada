// Package validator checks funnel definitions before they are served.
//
// Three layers run in order: the JSON Schema of the raw document, struct tags on the decoded
// domain types, and semantic checks over references between pages, blocks, rules and variables.
// Findings the engine would silently degrade at runtime are reported as warnings.
package validator

import (
	_ "embed"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	playground "github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/schema"
)

//go:embed definition.schema.json
var definitionSchema []byte

var (
	structs      = newStructValidator()
	schemaLoader = gojsonschema.NewBytesLoader(definitionSchema)
)

// newStructValidator reports fields by their json names so paths match the document.
func newStructValidator() *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Document validates a raw YAML or JSON document against the definition JSON Schema.
func Document(raw []byte) *Report {
	report := &Report{}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		report.errorf("", "parse document: %v", err)
		return report
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		report.errorf("", "schema validation: %v", err)
		return report
	}
	for _, desc := range result.Errors() {
		report.errorf(desc.Field(), "%s", desc.Description())
	}
	return report
}

// Definition runs the struct and semantic checks over a decoded definition.
func Definition(def *domain.Definition) *Report {
	report := &Report{}
	if def == nil {
		report.errorf("", "definition is nil")
		return report
	}

	if err := structs.Struct(def); err != nil {
		var fieldErrs playground.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			report.errorf("", "%v", err)
			return report
		}
		for _, fe := range fieldErrs {
			report.errorf(fieldPath(fe.Namespace()), "failed %q constraint%s", fe.Tag(), param(fe.Param()))
		}
	}

	c := newChecker(def, report)
	c.pages()
	c.variables()
	c.rules()
	return report
}

// fieldPath turns "Definition.pages[0].blocks[1].id" into "pages[0].blocks[1].id".
func fieldPath(ns string) string {
	_, path, _ := strings.Cut(ns, ".")
	return path
}

func param(p string) string {
	if p == "" {
		return ""
	}
	return " (" + p + ")"
}

type checker struct {
	def    *domain.Definition
	report *Report

	pageIdx  map[string]int
	blocks   map[string]string // block id -> page id
	vars     schema.Schema
	exprs    *runtime.ExpressionEvaluator
	patterns map[string]bool
}

func newChecker(def *domain.Definition, report *Report) *checker {
	return &checker{
		def:      def,
		report:   report,
		pageIdx:  make(map[string]int),
		blocks:   make(map[string]string),
		vars:     make(schema.Schema),
		exprs:    runtime.NewExpressionEvaluator(),
		patterns: make(map[string]bool),
	}
}

func (c *checker) pages() {
	for i, p := range c.def.Pages {
		path := fmt.Sprintf("pages[%d]", i)
		if p.ID == domain.Complete {
			c.report.errorf(path+".id", "%q is reserved", domain.Complete)
		}
		if _, dup := c.pageIdx[p.ID]; dup && p.ID != "" {
			c.report.errorf(path+".id", "duplicate page id %q", p.ID)
			continue
		}
		c.pageIdx[p.ID] = i
	}

	for i, p := range c.def.Pages {
		for j, b := range p.Blocks {
			path := fmt.Sprintf("pages[%d].blocks[%d]", i, j)
			if b.ID == "" {
				continue
			}
			if owner, dup := c.blocks[b.ID]; dup {
				c.report.errorf(path+".id", "duplicate block id %q (already on page %q)", b.ID, owner)
				continue
			}
			if _, clash := c.pageIdx[b.ID]; clash {
				c.report.errorf(path+".id", "block id %q is also a page id", b.ID)
			}
			c.blocks[b.ID] = p.ID
			c.block(path, b)
		}
	}
}

func (c *checker) block(path string, b domain.Block) {
	if !b.Type.IsKnown() {
		c.report.warnf(path+".type", "unknown block type %q", b.Type)
		return
	}

	switch b.Type {
	case domain.BlockMultipleChoice, domain.BlockDropdown, domain.BlockPictureChoice:
		props, err := b.Choice()
		if err != nil {
			c.report.errorf(path+".properties", "%v", err)
		} else if len(props.Options) == 0 {
			c.report.warnf(path+".properties.options", "choice block has no options")
		}
	case domain.BlockSlider:
		props, err := b.Slider()
		if err != nil {
			c.report.errorf(path+".properties", "%v", err)
		} else if props.Max <= props.Min {
			c.report.warnf(path+".properties", "slider max (%v) must be greater than min (%v)", props.Max, props.Min)
		}
	}

	for k, v := range b.Validations {
		vpath := fmt.Sprintf("%s.validations[%d]", path, k)
		if !b.Type.IsInput() {
			c.report.warnf(vpath, "validation on presentational block is ignored")
			continue
		}
		switch v.Type {
		case domain.ValidationMinLength, domain.ValidationMaxLength, domain.ValidationMin, domain.ValidationMax:
			if _, ok := schema.NormalizeNumber(v.Value); !ok {
				c.report.errorf(vpath+".value", "%s needs a numeric value", v.Type)
			}
		case domain.ValidationPattern:
			expr, _ := v.Value.(string)
			if _, err := regexp.Compile(expr); err != nil || expr == "" {
				c.report.errorf(vpath+".value", "invalid pattern %q", expr)
			}
		}
	}
}

func (c *checker) variables() {
	for i, v := range c.def.Variables {
		path := fmt.Sprintf("variables[%d]", i)
		if _, dup := c.vars[v.Name]; dup {
			c.report.errorf(path+".name", "duplicate variable %q", v.Name)
			continue
		}
		t, err := schema.ParseType(string(v.Type))
		if err != nil {
			continue
		}
		c.vars[v.Name] = t
		if v.Default != nil {
			if err := schema.Check(c.vars, v.Name, v.Default); err != nil {
				c.report.errorf(path+".default", "%v", err)
			}
		}
	}
}

func (c *checker) rules() {
	for i, r := range c.def.Rules {
		path := fmt.Sprintf("rules[%d]", i)
		ruleIdx, ok := c.pageIdx[r.PageID]
		if !ok && r.PageID != "" {
			c.report.warnf(path+".page_id", "rule is attached to unknown page %q and never runs", r.PageID)
		}
		if r.Condition != nil {
			c.condition(path+".condition", *r.Condition)
		}
		for j, a := range r.Actions {
			c.action(fmt.Sprintf("%s.actions[%d]", path, j), a, ruleIdx, ok)
		}
	}
}

func (c *checker) action(path string, a domain.Action, ruleIdx int, attached bool) {
	target := a.Details.Target
	if target == "" {
		return
	}
	switch a.Kind {
	case domain.ActionHide, domain.ActionShow:
		_, isPage := c.pageIdx[target]
		_, isBlock := c.blocks[target]
		if !isPage && !isBlock {
			c.report.warnf(path+".details.target", "%s targets unknown page or block %q", a.Kind, target)
		}
	case domain.ActionJump:
		idx, ok := c.pageIdx[target]
		if !ok {
			c.report.warnf(path+".details.target", "jump to unknown page %q is ignored", target)
		} else if attached && idx <= ruleIdx {
			c.report.warnf(path+".details.target", "jump to %q does not move forward; it is ignored once the page is visited", target)
		}
	case domain.ActionSetVariable:
		if _, ok := c.vars[target]; !ok {
			c.report.warnf(path+".details.target", "write to undeclared variable %q is discarded", target)
			return
		}
		if a.Details.Expression != "" {
			if err := c.exprs.Compile(a.Details.Expression); err != nil {
				c.report.errorf(path+".details.expression", "%v", err)
			}
			return
		}
		if err := schema.Check(c.vars, target, a.Details.Value); err != nil {
			c.report.warnf(path+".details.value", "%v", err)
		}
	}
}

func (c *checker) condition(path string, cond domain.Condition) {
	arity := cond.Op.Arity()
	switch {
	case arity == 0:
		c.report.warnf(path+".op", "unknown operator %q always evaluates to false", cond.Op)
		return
	case arity < 0:
		if cond.Op == domain.OpNot && len(cond.Conditions) != 1 {
			c.report.warnf(path+".conditions", "not needs exactly one condition")
		}
		if cond.Op == domain.OpAnd && len(cond.Conditions) == 0 {
			c.report.warnf(path+".conditions", "empty and always evaluates to false")
		}
		for i, child := range cond.Conditions {
			c.condition(fmt.Sprintf("%s.conditions[%d]", path, i), child)
		}
		return
	case len(cond.Vars) != arity:
		c.report.warnf(path+".vars", "%s needs %d operands, got %d", cond.Op, arity, len(cond.Vars))
	}

	for i, v := range cond.Vars {
		vpath := fmt.Sprintf("%s.vars[%d]", path, i)
		if v.Type == domain.OperandConstant {
			continue
		}
		ref, ok := v.Value.(string)
		if !ok {
			c.report.warnf(vpath+".value", "%s reference must be a string", v.Type)
			continue
		}
		switch v.Type {
		case domain.OperandBlock:
			if _, known := c.blocks[ref]; !known {
				c.report.warnf(vpath+".value", "unknown block %q is never answered", ref)
			}
		case domain.OperandVariable:
			if _, known := c.vars[ref]; !known {
				c.report.warnf(vpath+".value", "undeclared variable %q", ref)
			}
		}
	}
}
