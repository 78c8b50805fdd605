// internal/services/feed_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/coral-ledger/internal/feeds"
	"github.com/javajoker/coral-ledger/internal/ledger"
	"github.com/javajoker/coral-ledger/internal/metrics"
	"github.com/javajoker/coral-ledger/internal/reporting"
	"github.com/javajoker/coral-ledger/internal/store"
)

var ErrExportDisabled = errors.New("report export is not configured")

const reportLinkTTL = 24 * time.Hour

// reportPresigner is implemented by sinks that can hand out download links.
type reportPresigner interface {
	PresignReport(name string, expiration time.Duration) (string, error)
}

type FeedService struct {
	store    store.Store
	source   feeds.Source
	sink     feeds.Sink
	invoices *InvoiceService
	shares   *ShareService
	now      func() time.Time
}

type FeedResult struct {
	Feed     string `json:"feed"`
	Records  int    `json:"records"`
	Imported int    `json:"imported"`
	Rejected int    `json:"rejected"`
	Skipped  bool   `json:"skipped,omitempty"`
}

type ImportSummary struct {
	Source              string       `json:"source"`
	Feeds               []FeedResult `json:"feeds"`
	AssetsChecked       int          `json:"assetsChecked"`
	IntegrityViolations int          `json:"integrityViolations"`
}

type Report struct {
	GeneratedAt time.Time                   `json:"generatedAt"`
	Stats       reporting.SummaryStats      `json:"stats"`
	Monthly     []reporting.MonthlyTotal    `json:"monthly"`
	Invoices    []reporting.EnrichedInvoice `json:"invoices"`
}

// NewFeedService takes a nil sink when exports are not configured.
func NewFeedService(s store.Store, source feeds.Source, sink feeds.Sink, invoices *InvoiceService, shares *ShareService) *FeedService {
	return &FeedService{
		store:    s,
		source:   source,
		sink:     sink,
		invoices: invoices,
		shares:   shares,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Import loads every legacy feed into the store. Directories go first so
// invoices and shares can be checked against them. Missing feeds are
// skipped; malformed records abort the import.
func (s *FeedService) Import(ctx context.Context) (*ImportSummary, error) {
	summary := &ImportSummary{Source: s.source.Describe()}

	steps := []struct {
		feed string
		load func(ctx context.Context, data []byte) (FeedResult, error)
	}{
		{feeds.ProductsFeed, s.importProducts},
		{feeds.BusinessesFeed, s.importBusinesses},
		{feeds.UsersFeed, s.importUsers},
		{feeds.InvoicesFeed, s.importInvoices},
		{feeds.SharesFeed, s.importShares},
	}

	for _, step := range steps {
		data, err := s.source.Read(ctx, step.feed)
		if errors.Is(err, feeds.ErrFeedNotFound) {
			logrus.WithFields(logrus.Fields{"feed": step.feed, "source": summary.Source}).Warn("Feed not found, skipping")
			summary.Feeds = append(summary.Feeds, FeedResult{Feed: step.feed, Skipped: true})
			continue
		}
		if err != nil {
			return summary, err
		}

		result, err := step.load(ctx, data)
		result.Feed = step.feed
		summary.Feeds = append(summary.Feeds, result)
		if err != nil {
			return summary, fmt.Errorf("import of %s failed: %w", step.feed, err)
		}
		logrus.WithFields(logrus.Fields{
			"feed":     step.feed,
			"records":  result.Records,
			"imported": result.Imported,
			"rejected": result.Rejected,
		}).Info("Feed imported")
	}

	reports, err := s.shares.IntegrityAll(ctx)
	if err != nil {
		return summary, err
	}
	summary.AssetsChecked = len(reports)
	for _, r := range reports {
		if r.OK {
			continue
		}
		summary.IntegrityViolations++
		logrus.WithFields(logrus.Fields{"asset_id": r.AssetID, "violations": len(r.Violations)}).Warn("Imported ledger fails integrity checks")
	}
	return summary, nil
}

// tally counts one stored or rejected record. Store errors other than
// rule rejections abort the feed.
func tally(result *FeedResult, feed, id string, err error) error {
	if err == nil {
		result.Imported++
		metrics.RecordFeedRecord(feed, "imported")
		return nil
	}
	result.Rejected++
	metrics.RecordFeedRecord(feed, "rejected")
	logrus.WithError(err).WithFields(logrus.Fields{"feed": feed, "id": id}).Warn("Feed record rejected")
	if errors.Is(err, store.ErrDuplicate) || errors.Is(err, ledger.ErrDuplicateRoot) {
		return nil
	}
	return err
}

func (s *FeedService) importProducts(ctx context.Context, data []byte) (FeedResult, error) {
	products, err := feeds.ParseProducts(data)
	if err != nil {
		return FeedResult{}, err
	}
	result := FeedResult{Records: len(products)}
	for i := range products {
		if err := tally(&result, feeds.ProductsFeed, products[i].ID, s.store.UpsertProduct(ctx, &products[i])); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *FeedService) importBusinesses(ctx context.Context, data []byte) (FeedResult, error) {
	businesses, err := feeds.ParseBusinesses(data)
	if err != nil {
		return FeedResult{}, err
	}
	result := FeedResult{Records: len(businesses)}
	for i := range businesses {
		if err := tally(&result, feeds.BusinessesFeed, businesses[i].ID, s.store.UpsertBusiness(ctx, &businesses[i])); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *FeedService) importUsers(ctx context.Context, data []byte) (FeedResult, error) {
	users, err := feeds.ParseUsers(data)
	if err != nil {
		return FeedResult{}, err
	}
	result := FeedResult{Records: len(users)}
	for i := range users {
		if err := tally(&result, feeds.UsersFeed, users[i].ID, s.store.UpsertUser(ctx, &users[i])); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *FeedService) importInvoices(ctx context.Context, data []byte) (FeedResult, error) {
	invoices, err := feeds.ParseInvoices(data)
	if err != nil {
		return FeedResult{}, err
	}
	result := FeedResult{Records: len(invoices)}
	for i := range invoices {
		if err := tally(&result, feeds.InvoicesFeed, invoices[i].ID, s.store.UpsertInvoice(ctx, &invoices[i])); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *FeedService) importShares(ctx context.Context, data []byte) (FeedResult, error) {
	nodes, err := feeds.ParseShares(data)
	if err != nil {
		return FeedResult{}, err
	}
	result := FeedResult{Records: len(nodes)}
	for i := range nodes {
		if err := tally(&result, feeds.SharesFeed, nodes[i].ID, s.store.ImportNode(ctx, &nodes[i])); err != nil {
			return result, err
		}
	}
	return result, nil
}

// ExportReport writes the enriched invoice list and its summary as one JSON
// document to the configured sink and returns its location.
func (s *FeedService) ExportReport(ctx context.Context, q InvoiceQuery) (string, error) {
	if s.sink == nil {
		return "", ErrExportDisabled
	}

	views, err := s.invoices.ListInvoices(ctx, q)
	if err != nil {
		return "", err
	}

	now := s.now()
	report := Report{
		GeneratedAt: now,
		Stats:       reporting.ComputeSummaryStats(views),
		Monthly:     reporting.MonthlyTotals(views),
		Invoices:    views,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	name := "invoice-report-" + now.Format("20060102T150405Z") + ".json"
	location, err := s.sink.Write(ctx, name, data, "application/json")
	if err != nil {
		return "", fmt.Errorf("failed to store report: %w", err)
	}
	if presigner, ok := s.sink.(reportPresigner); ok {
		if url, err := presigner.PresignReport(name, reportLinkTTL); err == nil {
			location = url
		} else {
			logrus.WithError(err).WithField("report", name).Warn("Failed to presign report, returning object location")
		}
	}

	logrus.WithFields(logrus.Fields{"location": location, "invoices": len(views)}).Info("Invoice report exported")
	return location, nil
}
