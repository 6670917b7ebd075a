// Package extractor is the orchestrator: it classifies the current page,
// picks the mapping, schema and strategy for it, runs the extraction and
// hands the result to the record store.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"sfextract-backend/lib/dom"
	"sfextract-backend/lib/scrapers/lightning"
	"sfextract-backend/services/recordstore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/extractor")

var UnknownContext = fmt.Errorf("could not detect a supported object or view on this page")
var UnsupportedObject = fmt.Errorf("no field mapping or schema for this object kind")

type ServiceOptions struct {
	Doc     dom.Document
	PageURL *url.URL
	Store   recordstore.Service
	// WaitTimeout bounds readiness waits; lightning.DefaultTimeout when
	// zero.
	WaitTimeout time.Duration
}

type Service struct {
	doc     dom.Document
	pageUrl *url.URL
	store   recordstore.Service
	timeout time.Duration
	wg      *sync.WaitGroup
}

func NewService(opts ServiceOptions) Service {
	return Service{
		doc:     opts.Doc,
		pageUrl: opts.PageURL,
		store:   opts.Store,
		timeout: opts.WaitTimeout,
		wg:      &sync.WaitGroup{},
	}
}

// PageContext classifies the current page without side effects. The
// presentation layer uses it to label the trigger control.
func (s Service) PageContext() *lightning.PageContext {
	path := ""
	if s.pageUrl != nil {
		path = s.pageUrl.Path
	}
	return lightning.ResolveContext(path, s.doc)
}

type Result struct {
	Context lightning.PageContext
	Records []lightning.Record
}

// Extract runs one extraction attempt against the current page.
// Persistence is asynchronous: the caller is told extraction succeeded once
// data exists, matching the eventually-consistent store. A failed write is
// logged, never surfaced here.
func (s Service) Extract(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	pageCtx := s.PageContext()
	if pageCtx == nil {
		span.SetStatus(codes.Error, "unknown page context")
		return Result{}, UnknownContext
	}
	span.SetAttributes(
		attribute.String("object", string(pageCtx.Object)),
		attribute.String("view", string(pageCtx.View)),
	)

	mapping, hasMapping := lightning.FieldMappings[pageCtx.Object]
	schema, hasSchema := lightning.Schemas[pageCtx.Object]
	if !hasMapping || !hasSchema {
		span.SetStatus(codes.Error, "unsupported object kind")
		return Result{}, fmt.Errorf("%w: %s", UnsupportedObject, pageCtx.Object)
	}

	strategy := lightning.StrategyForView(s.doc, pageCtx.View, lightning.Options{
		Timeout: s.timeout,
		PageURL: s.pageUrl,
	})
	records, err := strategy.Extract(ctx, pageCtx.Object, mapping, schema)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return Result{}, err
	}

	slog.InfoContext(
		ctx, "extraction complete",
		"object", string(pageCtx.Object),
		"view", string(pageCtx.View),
		"count", len(records),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.store.Save(context.WithoutCancel(ctx), pageCtx.Object, records)
		if err != nil {
			slog.WarnContext(
				ctx, "failed to persist extracted records",
				"object", string(pageCtx.Object),
				"err", err,
			)
		}
	}()

	return Result{Context: *pageCtx, Records: records}, nil
}

// Wait blocks until persistence work spawned by Extract has settled.
func (s Service) Wait() {
	s.wg.Wait()
}
