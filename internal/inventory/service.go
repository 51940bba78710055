// AngelaMos | 2026
// service.go

package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/shelflife/internal/access"
	"github.com/carterperez-dev/shelflife/internal/catalog"
	"github.com/carterperez-dev/shelflife/internal/config"
	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/realtime"
	"github.com/carterperez-dev/shelflife/internal/store"
)

var itemsAdded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "inventory_items_added_total",
	Help: "Inventory items registered.",
})

type StoreLookup interface {
	Lookup(ctx context.Context, id string) (*store.Store, error)
}

type Service struct {
	db                 *sqlx.DB
	repo               Repository
	stores             StoreLookup
	events             realtime.Publisher
	logger             *slog.Logger
	loc                *time.Location
	missingDescription string
	now                func() time.Time
}

type ServiceConfig struct {
	DB        *sqlx.DB
	Stores    StoreLookup
	Events    realtime.Publisher
	Logger    *slog.Logger
	Inventory config.InventoryConfig
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		db:                 cfg.DB,
		repo:               NewRepository(cfg.DB),
		stores:             cfg.Stores,
		events:             cfg.Events,
		logger:             logger,
		loc:                cfg.Inventory.Location(),
		missingDescription: cfg.Inventory.MissingDescription,
		now:                time.Now,
	}
}

func (s *Service) today() time.Time {
	return Today(s.now(), s.loc)
}

func (s *Service) view(item Item, today time.Time) View {
	desc := item.ProductDescription.String
	if !item.ProductDescription.Valid || desc == "" {
		desc = s.missingDescription
	}

	days := DaysUntil(item.ExpiryDate, today)
	return View{
		Item:        item,
		Description: desc,
		Days:        days,
		Status:      Classify(days),
	}
}

func (s *Service) accessibleStore(
	ctx context.Context,
	actor *access.Actor,
	storeID string,
) (*store.Store, error) {
	st, err := s.stores.Lookup(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if !access.CanAccessStore(actor, st.ID, st.FranchiseID) {
		return nil, fmt.Errorf("store inventory: %w", core.ErrForbidden)
	}

	return st, nil
}

// List returns the store's items ordered by expiry date, classified against
// today. Search and bucket filters run over the fetched set. A failed fetch
// is logged and yields an empty list.
func (s *Service) List(
	ctx context.Context,
	actor *access.Actor,
	storeID string,
	q ListQuery,
) ([]View, error) {
	if _, err := s.accessibleStore(ctx, actor, storeID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		s.logger.WarnContext(ctx, "inventory fetch failed",
			"store_id", storeID,
			"error", err,
		)
		return []View{}, nil
	}

	return s.filter(items, q), nil
}

func (s *Service) filter(items []Item, q ListQuery) []View {
	today := s.today()
	search := strings.TrimSpace(q.Search)
	needle := strings.ToLower(search)

	views := make([]View, 0, len(items))
	for _, item := range items {
		v := s.view(item, today)

		if search != "" &&
			!strings.Contains(strings.ToLower(v.Description), needle) &&
			!strings.Contains(item.ProductCode, search) {
			continue
		}

		if !q.Filter.Match(v.Days) {
			continue
		}

		views = append(views, v)
	}

	return views
}

// ListAll is the admin view across every store.
func (s *Service) ListAll(ctx context.Context, actor *access.Actor) ([]View, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("list all inventory: %w", core.ErrForbidden)
	}

	items, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "inventory fetch failed", "error", err)
		return []View{}, nil
	}

	return s.filter(items, ListQuery{Filter: FilterAll}), nil
}

// Add upserts the catalog entry for the product code and inserts the item
// in one transaction, so a failed insert never leaves a catalog change
// behind.
func (s *Service) Add(
	ctx context.Context,
	actor *access.Actor,
	storeID string,
	req AddItemRequest,
) (*View, error) {
	ctx, span := core.StartSpan(ctx, "inventory.Add",
		attribute.String("store_id", storeID),
		attribute.String("product_code", req.ProductCode),
	)
	defer span.End()

	st, err := s.accessibleStore(ctx, actor, storeID)
	if err != nil {
		return nil, err
	}

	if req.FranchiseID != "" && req.FranchiseID != st.FranchiseID {
		return nil, core.ValidationError("franchise_id does not match the store's franchise")
	}

	expiry, err := ParseDate(req.ExpiryDate)
	if err != nil {
		return nil, err
	}

	if req.Quantity < 0 {
		return nil, core.ValidationError("quantity must not be negative")
	}

	item := &Item{
		ID:          uuid.New().String(),
		StoreID:     st.ID,
		FranchiseID: st.FranchiseID,
		ProductCode: strings.TrimSpace(req.ProductCode),
		Quantity:    req.Quantity,
		ExpiryDate:  expiry,
	}

	var product *catalog.Product
	err = core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		p, created, upErr := catalog.Upsert(ctx, catalog.NewRepository(tx), item.ProductCode, catalog.Changes{
			Description: req.ProductDescription,
			UnitCost:    req.UnitCost,
		})
		if upErr != nil {
			return upErr
		}
		product = p
		if created {
			core.AddSpanEvent(ctx, "catalog.product_created",
				attribute.String("product_code", p.Code),
			)
		}

		item.TotalCost = totalCost(req, p)

		return NewRepository(tx).Create(ctx, item)
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	itemsAdded.Inc()

	item.ProductDescription.String = product.Description
	item.ProductDescription.Valid = true

	realtime.Notify(ctx, s.events, item.FranchiseID, realtime.Event{
		Table: realtime.TableInventory,
		Op:    realtime.OpInsert,
		RowID: item.ID,
	})

	v := s.view(*item, s.today())
	return &v, nil
}

// totalCost is the supplied total, else quantity times the unit cost from
// the request, else from the catalog.
func totalCost(req AddItemRequest, p *catalog.Product) float64 {
	if req.TotalCost != nil {
		return *req.TotalCost
	}

	unitCost := 0.0
	switch {
	case req.UnitCost != nil:
		unitCost = *req.UnitCost
	case p != nil:
		unitCost = p.UnitCost
	}

	return float64(req.Quantity) * unitCost
}

func (s *Service) itemForActor(
	ctx context.Context,
	actor *access.Actor,
	id string,
) (*Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanAccessStore(actor, item.StoreID, item.FranchiseID) {
		return nil, fmt.Errorf("inventory item: %w", core.ErrForbidden)
	}

	return item, nil
}

func (s *Service) Update(
	ctx context.Context,
	actor *access.Actor,
	id string,
	req UpdateItemRequest,
) (*View, error) {
	expiry, err := ParseDate(req.ExpiryDate)
	if err != nil {
		return nil, err
	}

	if req.Quantity < 0 {
		return nil, core.ValidationError("quantity must not be negative")
	}

	item, err := s.itemForActor(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	item.Quantity = req.Quantity
	item.ExpiryDate = expiry

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	realtime.Notify(ctx, s.events, item.FranchiseID, realtime.Event{
		Table: realtime.TableInventory,
		Op:    realtime.OpUpdate,
		RowID: item.ID,
	})

	v := s.view(*item, s.today())
	return &v, nil
}

func (s *Service) Delete(ctx context.Context, actor *access.Actor, id string) error {
	item, err := s.itemForActor(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	realtime.Notify(ctx, s.events, item.FranchiseID, realtime.Event{
		Table: realtime.TableInventory,
		Op:    realtime.OpDelete,
		RowID: item.ID,
	})

	return nil
}

type Summary struct {
	Total   int `json:"total"`
	Expired int `json:"expired"`
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return Summary{}, err
	}

	expired, err := s.repo.CountExpiredBefore(ctx, s.today())
	if err != nil {
		return Summary{}, err
	}

	return Summary{Total: total, Expired: expired}, nil
}
