package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/comply/internal/catalogue"
	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/repository"
	"github.com/alexanderramin/comply/internal/session"
)

type catalogueService struct {
	gateway   ComplianceGateway
	snapshots repository.CatalogueSnapshotRepo
	observer  UseCaseObserver
}

// NewCatalogueService wires catalogue loading. snapshots may be nil, which
// disables the offline cache.
func NewCatalogueService(
	gateway ComplianceGateway,
	snapshots repository.CatalogueSnapshotRepo,
	observers ...UseCaseObserver,
) CatalogueService {
	return &catalogueService{
		gateway:   gateway,
		snapshots: snapshots,
		observer:  useCaseObserverOrNoop(observers),
	}
}

// SnapshotScope is the cache key for a catalogue request.
func SnapshotScope(variant domain.CatalogueVariant, orgID *string) string {
	v := string(variant)
	if v == "" {
		v = "auto"
	}
	return v + "|" + domain.StrOrEmpty(orgID)
}

func (s *catalogueService) Load(ctx context.Context, sess *session.AssignSession, opts LoadOptions) (res *CatalogueResult, err error) {
	_, orgID := sess.Target()
	scope := SnapshotScope(opts.Variant, orgID)
	fields := map[string]any{"scope": scope, "offline": opts.Offline}
	done := observe(ctx, s.observer, "load-catalogue", fields)
	defer func() { done(err) }()

	gen := sess.BeginLoad()

	var l *loaded
	if opts.Offline {
		l, err = s.loadCached(ctx, scope)
	} else {
		l, err = s.fetch(ctx, opts.Variant, orgID)
	}
	if err != nil {
		return nil, err
	}
	fields["variant"] = string(l.Variant)
	fields["items"] = l.Catalogue.ItemCount()

	if !sess.ApplyCatalogue(gen, l.Catalogue, l.Variant) {
		return nil, domain.ErrStaleResponse
	}

	if !l.FromCache && s.snapshots != nil {
		snap := &domain.CatalogueSnapshot{
			Scope:     scope,
			Variant:   l.Variant,
			OrgID:     orgID,
			Payload:   l.payload,
			ItemCount: l.Catalogue.ItemCount(),
			FetchedAt: l.FetchedAt,
		}
		if cacheErr := s.snapshots.Save(ctx, snap); cacheErr != nil {
			fields["cache_error"] = cacheErr.Error()
		}
	}
	return &l.CatalogueResult, nil
}

// loaded carries the raw payload alongside the result for caching.
type loaded struct {
	CatalogueResult
	payload []byte
}

func (s *catalogueService) fetch(ctx context.Context, variant domain.CatalogueVariant, orgID *string) (*loaded, error) {
	raw, err := s.gateway.FetchCatalogue(ctx, variant, orgID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	cat, detected, err := catalogue.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return &loaded{
		CatalogueResult: CatalogueResult{
			Catalogue: cat,
			Variant:   detected,
			FetchedAt: time.Now().UTC(),
		},
		payload: raw,
	}, nil
}

func (s *catalogueService) loadCached(ctx context.Context, scope string) (*loaded, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("%w: offline cache disabled", domain.ErrFetchFailed)
	}
	snap, err := s.snapshots.Get(ctx, scope)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: no cached catalogue for %s", domain.ErrFetchFailed, scope)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	cat, detected, err := catalogue.Decode(snap.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: cached catalogue: %v", domain.ErrFetchFailed, err)
	}
	return &loaded{
		CatalogueResult: CatalogueResult{
			Catalogue: cat,
			Variant:   detected,
			FromCache: true,
			FetchedAt: snap.FetchedAt,
		},
	}, nil
}
