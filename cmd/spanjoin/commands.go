package main

import (
	"encoding/json"
	"fmt"

	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/logger"
	"go.llib.dev/frameless/pkg/logging"
	"go.llib.dev/spanjoin/pkg/interval"
	"go.llib.dev/spanjoin/pkg/overlapjoin"
	"go.llib.dev/spanjoin/pkg/spanmatch"
	"go.llib.dev/spanjoin/port/spanstore"
)

type JoinCmd struct {
	A      string `arg:"" help:"JSON file with the A spans" type:"existingfile"`
	B      string `arg:"" help:"JSON file with the B spans" type:"existingfile"`
	Strict bool   `help:"Fail when an input is not sorted by begin"`
	Sort   bool   `help:"Sort the inputs by begin before joining"`
}

type joinedPair struct {
	A        Span              `json:"a"`
	B        Span              `json:"b"`
	Relation interval.Relation `json:"relation"`
}

func (c *JoinCmd) Run(app *App) error {
	as, err := readSpans(c.A)
	if err != nil {
		return err
	}
	bs, err := readSpans(c.B)
	if err != nil {
		return err
	}
	if c.Sort {
		interval.Sort(as)
		interval.Sort(bs)
	}

	var opts []overlapjoin.Option
	if c.Strict || app.Config.Strict {
		opts = append(opts, overlapjoin.Strict())
	}

	sweep := overlapjoin.New(as, bs, opts...)
	defer sweep.Close()

	enc := json.NewEncoder(app.Out)
	var n int
	for sweep.HasNext() {
		p := sweep.Next()
		if err := enc.Encode(joinedPair{A: p.A.Payload, B: p.B.Payload, Relation: interval.Classify(p.A, p.B)}); err != nil {
			return err
		}
		n++
	}
	if err := sweep.Err(); err != nil {
		return err
	}
	logger.Debug(app.Context, "join finished", logging.Field("pairs", n))
	return nil
}

type ImportCmd struct {
	File     string `arg:"" help:"JSON file with the spans" type:"existingfile"`
	Document string `required:"" help:"Document the spans belong to"`
	Layer    string `required:"" help:"Layer the spans are imported into"`
}

func (c *ImportCmd) Run(app *App) (returnErr error) {
	spans, err := readSpans(c.File)
	if err != nil {
		return err
	}
	store, closeStore, err := app.Config.OpenStore(app.Context)
	if err != nil {
		return err
	}
	defer errorkit.Finish(&returnErr, closeStore)

	for _, s := range spans {
		a := spanstore.Annotation{
			Document: c.Document,
			Layer:    c.Layer,
			Begin:    s.Begin,
			End:      s.End,
			Label:    s.Payload.Label,
		}
		if err := store.Create(app.Context, &a); err != nil {
			return err
		}
	}
	logger.Info(app.Context, "spans imported",
		logging.Field("document", c.Document),
		logging.Field("layer", c.Layer),
		logging.Field("count", len(spans)))
	_, err = fmt.Fprintf(app.Out, "imported %d spans into %s/%s\n", len(spans), c.Document, c.Layer)
	return err
}

type MatchCmd struct {
	Document  string `required:"" help:"Document to match the layers of"`
	A         string `name:"a" required:"" help:"First layer"`
	B         string `name:"b" required:"" help:"Second layer"`
	SameLabel bool   `help:"Only report pairs with the same label"`
	Strict    bool   `help:"Fail when the store serves a layer out of order"`
}

func (c *MatchCmd) Run(app *App) (returnErr error) {
	store, closeStore, err := app.Config.OpenStore(app.Context)
	if err != nil {
		return err
	}
	defer errorkit.Finish(&returnErr, closeStore)

	matcher := spanmatch.Matcher{Store: store}
	enc := json.NewEncoder(app.Out)
	for m, err := range matcher.Match(app.Context, spanmatch.Query{
		Document:  c.Document,
		LayerA:    c.A,
		LayerB:    c.B,
		SameLabel: c.SameLabel,
		Strict:    c.Strict || app.Config.Strict,
	}) {
		if err != nil {
			return err
		}
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return nil
}
