package cookbook

import (
	"context"

	"github.com/recipeshift/recipeshift/attr"
	"github.com/recipeshift/recipeshift/diag"
	"github.com/recipeshift/recipeshift/schema"
	"github.com/recipeshift/recipeshift/task"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// A RecipeResult pairs one recipe file with its conversion.
type RecipeResult struct {
	File   File
	Result task.Result
}

// A Conversion is the converted cookbook: one result per recipe in file
// order, the shared attribute table, and cookbook-level diagnostics from
// attribute and schema parsing.
type Conversion struct {
	Recipes    []RecipeResult
	Attributes *attr.Table
	Diags      diag.Diagnostics
}

// ResolveAttributes scans every attribute file and resolves the effective
// table. Declaration indices continue across files in sorted file order, so
// equal-precedence ties resolve by file order then line order.
func (cb *Cookbook) ResolveAttributes() (*attr.Table, diag.Diagnostics) {
	var (
		assignments []attr.Assignment
		diags       diag.Diagnostics
	)
	for _, f := range cb.Attributes {
		as, more := attr.Scan(f.Body, f.Path, len(assignments))
		diags = diags.Extend(more)
		assignments = append(assignments, as...)
	}
	return attr.NewTable(attr.Resolve(assignments)), diags
}

// ParseSchemas parses every custom resource definition. The resource type
// name defaults to the file name, matching how the source system registers
// resources.
func (cb *Cookbook) ParseSchemas() (map[string]*schema.Resource, diag.Diagnostics) {
	var diags diag.Diagnostics
	schemas := make(map[string]*schema.Resource, len(cb.Resources))
	for _, f := range cb.Resources {
		res, more := schema.Parse(f.Body, f.Path)
		diags = diags.Extend(more)
		if res.Name == "" {
			res.Name = f.Name
		}
		schemas[res.Name] = res
	}
	return schemas, diags
}

// Convert converts every recipe in the cookbook. Recipes are independent
// and converted concurrently; the only shared data is the read-only
// attribute table and schema set. Results come back in recipe file order
// regardless of completion order.
func (cb *Cookbook) Convert(ctx context.Context, logger *zap.Logger) (*Conversion, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	table, diags := cb.ResolveAttributes()
	logger.Debug("resolved attributes",
		zap.String("cookbook", cb.Name),
		zap.Int("effective", table.Len()),
	)

	schemas, more := cb.ParseSchemas()
	diags = diags.Extend(more)

	conv := &Conversion{
		Recipes:    make([]RecipeResult, len(cb.Recipes)),
		Attributes: table,
		Diags:      diags,
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range cb.Recipes {
		i, f := i, f
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			c := &task.Converter{Attributes: table, Schemas: schemas}
			res := c.Convert(f.Body, f.Path)
			logger.Debug("converted recipe",
				zap.String("recipe", f.Name),
				zap.Int("tasks", len(res.Tasks)),
				zap.Int("handlers", len(res.Handlers)),
				zap.Int("diagnostics", len(res.Diags)),
			)
			conv.Recipes[i] = RecipeResult{File: f, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return conv, nil
}
