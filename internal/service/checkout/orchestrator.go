package checkout

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"storefront-checkout/internal/domain"
	cartsvc "storefront-checkout/internal/service/cart"
	"storefront-checkout/internal/service/inventory"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle               State = "idle"
	StateCollectingDelivery State = "collecting_delivery"
	StateSelectingPayment   State = "selecting_payment"
	StateConfirming         State = "confirming"
	StatePlaced             State = "placed"
)

// CartStore is the cart the checkout reads from and clears after placement.
type CartStore interface {
	Cart() domain.Cart
	Reload(ctx context.Context) (domain.Cart, error)
	ApplyShortfalls(ctx context.Context, shortfalls []domain.Shortfall) (domain.Cart, error)
	RemoveItems(ctx context.Context, productIDs []string) (domain.Cart, error)
}

type InventoryValidator interface {
	CheckAndReconcile(ctx context.Context, r inventory.Reconciler, items []domain.CheckItem) (domain.InventoryCheckResult, domain.Cart, error)
}

type ShippingCalculator interface {
	GateDelivery(ctx context.Context, info domain.DeliveryInfo, entries []domain.CartEntry) (domain.DeliveryInfo, domain.RushDecision)
	Quote(ctx context.Context, info domain.DeliveryInfo, entries []domain.CartEntry) (domain.ShippingQuote, domain.DeliveryInfo)
}

// OrderSubmitter is the order-submission collaborator.
type OrderSubmitter interface {
	Submit(ctx context.Context, req domain.OrderRequest) (domain.Order, error)
}

// SubmissionGuard makes order submission at-most-once per checkout.
type SubmissionGuard interface {
	Acquire(ctx context.Context, checkoutID string) (bool, error)
	Release(ctx context.Context, checkoutID string) error
	MarkPlaced(ctx context.Context, checkoutID, orderID string) error
	PlacedOrder(ctx context.Context, checkoutID string) (string, bool, error)
}

type EventPublisher interface {
	OrderPlaced(ctx context.Context, order domain.Order) error
}

// Deps wires an Orchestrator. Guard and Events may be nil.
type Deps struct {
	Cart      CartStore
	Auth      cartsvc.AuthState
	Inventory InventoryValidator
	Shipping  ShippingCalculator
	Orders    OrderSubmitter
	Guard     SubmissionGuard
	Events    EventPublisher
	Logger    *log.Logger
}

// Snapshot is the externally visible checkout state.
type Snapshot struct {
	CheckoutID    string               `json:"checkoutId,omitempty"`
	State         State                `json:"state"`
	ItemIDs       []string             `json:"itemIds"`
	Delivery      *domain.DeliveryInfo `json:"delivery,omitempty"`
	Rush          domain.RushDecision  `json:"rush"`
	PaymentMethod string               `json:"paymentMethod,omitempty"`
	Order         *domain.Order        `json:"order,omitempty"`
}

// Orchestrator drives one checkout at a time for a session over the items selected when it began.
type Orchestrator struct {
	deps Deps
	now  func() time.Time

	// publishing tracks order events still being sent.
	publishing sync.WaitGroup

	mu         sync.Mutex
	state      State
	checkoutID string
	itemIDs    []string
	delivery   *domain.DeliveryInfo
	rush       domain.RushDecision
	payment    string
	order      *domain.Order
}

func New(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard, "", 0)
	}
	return &Orchestrator{deps: deps, now: time.Now, state: StateIdle}
}

// Snapshot returns the current checkout state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

// Begin starts a checkout over the current selection. The inventory check must pass first;
// on shortfall the cart is clamped and the stock errors are returned.
func (o *Orchestrator) Begin(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	c := o.deps.Cart.Cart()
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		return o.snapshot(), domain.ErrEmptySelection
	}
	if err := o.inventoryGate(ctx, c.SelectedEntries()); err != nil {
		return o.snapshot(), err
	}

	o.reset()
	o.state = StateCollectingDelivery
	o.checkoutID = uuid.NewString()
	o.itemIDs = ids
	o.deps.Logger.Printf("checkout: begin id=%s items=%d", o.checkoutID, len(ids))
	return o.snapshot(), nil
}

// SubmitDelivery validates info and advances to payment selection. Validation failures return a
// domain.ValidationError and leave the state unchanged. Rush is forced off when not allowed.
func (o *Orchestrator) SubmitDelivery(ctx context.Context, info domain.DeliveryInfo) (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateCollectingDelivery {
		return o.snapshot(), o.illegal("submit delivery")
	}
	info = normalize(info)
	if err := ValidateDelivery(info); err != nil {
		return o.snapshot(), err
	}
	entries, err := o.entries()
	if err != nil {
		return o.snapshot(), err
	}
	if err := o.inventoryGate(ctx, entries); err != nil {
		return o.snapshot(), err
	}
	if entries, err = o.entries(); err != nil {
		return o.snapshot(), err
	}

	gated, decision := o.deps.Shipping.GateDelivery(ctx, info, entries)
	o.delivery = &gated
	o.rush = decision
	o.state = StateSelectingPayment
	return o.snapshot(), nil
}

// SetRush toggles rush delivery on the submitted delivery info, subject to eligibility.
func (o *Orchestrator) SetRush(ctx context.Context, rush bool, timeSlot string) (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.delivery == nil || o.state == StateIdle || o.state == StatePlaced {
		return o.snapshot(), o.illegal("set rush")
	}
	entries, err := o.entries()
	if err != nil {
		return o.snapshot(), err
	}
	info := *o.delivery
	info.IsRushOrder = rush
	info.RushTimeSlot = timeSlot
	if !rush {
		info.RushTimeSlot = ""
	}
	gated, decision := o.deps.Shipping.GateDelivery(ctx, info, entries)
	o.delivery = &gated
	o.rush = decision
	return o.snapshot(), nil
}

// SelectPayment records the payment method and moves to confirmation.
func (o *Orchestrator) SelectPayment(method string) (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateSelectingPayment {
		return o.snapshot(), o.illegal("select payment")
	}
	if method == "" {
		method = domain.PaymentVNPay
	}
	if method != domain.PaymentVNPay {
		return o.snapshot(), domain.ValidationError{"paymentMethod": "is not supported"}
	}
	o.payment = method
	o.state = StateConfirming
	return o.snapshot(), nil
}

// Back moves one step backwards; from delivery collection it leaves the checkout.
func (o *Orchestrator) Back() (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateConfirming:
		o.state = StateSelectingPayment
	case StateSelectingPayment:
		o.state = StateCollectingDelivery
	case StateCollectingDelivery:
		o.reset()
	default:
		return o.snapshot(), o.illegal("back")
	}
	return o.snapshot(), nil
}

// Summary recomputes the cost breakdown from the current cart and delivery info.
func (o *Orchestrator) Summary(ctx context.Context) (domain.CostSummary, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.delivery == nil || o.state == StateIdle || o.state == StatePlaced {
		return domain.CostSummary{}, o.illegal("summary")
	}
	summary, _, err := o.summary(ctx)
	return summary, err
}

// Confirm places the order if acceptedTotal still equals the recomputed total. The order is
// submitted before the cart is touched; only the submitted entries are removed, and only after
// the collaborator returned an order id. On any failure the checkout stays in confirmation.
func (o *Orchestrator) Confirm(ctx context.Context, acceptedTotal int64) (domain.Order, domain.CostSummary, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateConfirming {
		return domain.Order{}, domain.CostSummary{}, o.illegal("confirm")
	}
	summary, entries, err := o.summary(ctx)
	if err != nil {
		return domain.Order{}, summary, err
	}
	if summary.Estimated {
		return domain.Order{}, summary, domain.ErrShippingEstimated
	}
	if summary.Total != acceptedTotal {
		return domain.Order{}, summary, domain.ErrSummaryChanged
	}

	acquired := false
	if o.deps.Guard != nil {
		ok, err := o.deps.Guard.Acquire(ctx, o.checkoutID)
		if err != nil {
			return domain.Order{}, summary, fmt.Errorf("acquire submission: %w: %w", domain.ErrUnavailable, err)
		}
		acquired = ok
	}

	req := domain.OrderRequest{
		CheckoutID:    o.checkoutID,
		Lines:         domain.OrderLinesFromEntries(entries),
		Delivery:      *o.delivery,
		Summary:       summary,
		PaymentMethod: o.payment,
	}
	if o.deps.Auth != nil {
		req.CustomerID, _ = o.deps.Auth.CustomerID()
	}
	if o.deps.Guard != nil && !acquired {
		return o.alreadySubmitted(ctx, req, entries)
	}
	order, err := o.deps.Orders.Submit(ctx, req)
	if err == nil && order.ID == "" {
		err = fmt.Errorf("order submission: %w: missing order id", domain.ErrInvalidResponse)
	}
	if err != nil {
		o.deps.Logger.Printf("checkout: submit id=%s error=%v", o.checkoutID, err)
		if o.deps.Guard != nil {
			if rerr := o.deps.Guard.Release(ctx, o.checkoutID); rerr != nil {
				o.deps.Logger.Printf("checkout: release guard id=%s error=%v", o.checkoutID, rerr)
			}
		}
		return domain.Order{}, summary, err
	}

	order = completeOrder(order, req, o.now())
	if o.deps.Guard != nil {
		if err := o.deps.Guard.MarkPlaced(ctx, o.checkoutID, order.ID); err != nil {
			o.deps.Logger.Printf("checkout: mark placed id=%s order=%s error=%v", o.checkoutID, order.ID, err)
		}
	}

	o.placed(ctx, order, entries)
	o.deps.Logger.Printf("checkout: placed id=%s order=%s total=%d", o.checkoutID, order.ID, order.Summary.Total)

	if o.deps.Events != nil {
		// the event outlives the request that placed the order
		pubCtx := context.WithoutCancel(ctx)
		o.publishing.Add(1)
		go func() {
			defer o.publishing.Done()
			if err := o.deps.Events.OrderPlaced(pubCtx, order); err != nil {
				o.deps.Logger.Printf("checkout: publish order=%s error=%v", order.ID, err)
			}
		}()
	}
	return order, summary, nil
}

// Wait blocks until order events started by Confirm have been handed to the publisher.
func (o *Orchestrator) Wait() {
	o.publishing.Wait()
}

// alreadySubmitted handles a guard that is already held. When an order was recorded for this
// checkout the checkout converges on it and the existing order is returned with
// domain.ErrDuplicateSubmission; otherwise a submission is still in flight.
func (o *Orchestrator) alreadySubmitted(ctx context.Context, req domain.OrderRequest, entries []domain.CartEntry) (domain.Order, domain.CostSummary, error) {
	orderID, ok, err := o.deps.Guard.PlacedOrder(ctx, o.checkoutID)
	if err != nil {
		o.deps.Logger.Printf("checkout: lookup placed id=%s error=%v", o.checkoutID, err)
	}
	if err != nil || !ok {
		return domain.Order{}, req.Summary, domain.ErrDuplicateSubmission
	}
	order := completeOrder(domain.Order{ID: orderID}, req, o.now())
	o.placed(ctx, order, entries)
	o.deps.Logger.Printf("checkout: already placed id=%s order=%s", o.checkoutID, orderID)
	return order, req.Summary, fmt.Errorf("%w: order %s", domain.ErrDuplicateSubmission, orderID)
}

// placed removes the submitted entries from the cart and records the order.
func (o *Orchestrator) placed(ctx context.Context, order domain.Order, entries []domain.CartEntry) {
	submitted := make([]string, 0, len(entries))
	for _, e := range entries {
		submitted = append(submitted, e.Product.ID)
	}
	if _, err := o.deps.Cart.RemoveItems(ctx, submitted); err != nil {
		o.deps.Logger.Printf("checkout: clear submitted items order=%s error=%v", order.ID, err)
	}
	o.state = StatePlaced
	o.order = &order
}

func (o *Orchestrator) summary(ctx context.Context) (domain.CostSummary, []domain.CartEntry, error) {
	entries, err := o.entries()
	if err != nil {
		return domain.CostSummary{}, nil, err
	}
	quote, gated := o.deps.Shipping.Quote(ctx, *o.delivery, entries)
	o.delivery = &gated
	o.rush = quote.Rush
	return cartsvc.Summarize(entries, quote), entries, nil
}

// entries returns the current cart entries that belong to this checkout.
func (o *Orchestrator) entries() ([]domain.CartEntry, error) {
	c := o.deps.Cart.Cart()
	out := make([]domain.CartEntry, 0, len(o.itemIDs))
	for _, id := range o.itemIDs {
		if e, ok := c.Entry(id); ok {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrEmptySelection
	}
	return out, nil
}

func (o *Orchestrator) inventoryGate(ctx context.Context, entries []domain.CartEntry) error {
	res, _, err := o.deps.Inventory.CheckAndReconcile(ctx, o.deps.Cart, domain.CheckItemsFromEntries(entries))
	if err != nil {
		return err
	}
	return inventory.ShortfallError(res)
}

func (o *Orchestrator) illegal(op string) error {
	return fmt.Errorf("%s from %s: %w", op, o.state, domain.ErrIllegalTransition)
}

func (o *Orchestrator) reset() {
	o.state = StateIdle
	o.checkoutID = ""
	o.itemIDs = nil
	o.delivery = nil
	o.rush = domain.RushDecision{}
	o.payment = ""
	o.order = nil
}

func (o *Orchestrator) snapshot() Snapshot {
	s := Snapshot{
		CheckoutID:    o.checkoutID,
		State:         o.state,
		ItemIDs:       append([]string(nil), o.itemIDs...),
		Rush:          o.rush,
		PaymentMethod: o.payment,
	}
	if o.delivery != nil {
		d := *o.delivery
		s.Delivery = &d
	}
	if o.order != nil {
		ord := *o.order
		s.Order = &ord
	}
	return s
}

func completeOrder(order domain.Order, req domain.OrderRequest, now time.Time) domain.Order {
	if len(order.Lines) == 0 {
		order.Lines = req.Lines
	}
	if order.Delivery == (domain.DeliveryInfo{}) {
		order.Delivery = req.Delivery
	}
	if order.Summary == (domain.CostSummary{}) {
		order.Summary = req.Summary
	}
	if order.Status == "" {
		order.Status = domain.OrderPlaced
	}
	if order.PlacedAt.IsZero() {
		order.PlacedAt = now.UTC()
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = req.PaymentMethod
	}
	return order
}
