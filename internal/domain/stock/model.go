// Package stock provides the stock record store: one quantity-bearing record
// per (product, variant, warehouse, lot, expiry, shelf) combination.
package stock

import (
	"context"
	"time"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
)

// Key is the composite identity of a stock record. Two records with equal
// keys are the same physical pile of goods; destination resolution during
// moves and transfers is a lookup on this key.
type Key struct {
	ProductID   id.ID      `db:"product_id" json:"productId"`
	VariantID   *id.ID     `db:"variant_id" json:"variantId,omitempty"`
	WarehouseID id.ID      `db:"warehouse_id" json:"warehouseId"`
	LotNumber   string     `db:"lot_number" json:"lotNumber,omitempty"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
	ShelfID     id.ID      `db:"shelf_id" json:"shelfId"`
}

// WithShelf returns the same key relocated to another shelf.
func (k Key) WithShelf(shelfID id.ID) Key {
	k.ShelfID = shelfID
	return k
}

// WithWarehouse returns the same key relocated to another warehouse and shelf.
func (k Key) WithWarehouse(warehouseID, shelfID id.ID) Key {
	k.WarehouseID = warehouseID
	k.ShelfID = shelfID
	return k
}

// Record is a stock record. Counters obey the invariant
// 0 <= reserved + blocked <= onHand at all times; Available is derived.
//
// Records are never deleted: a drained record stays as a dormant row because
// it anchors the lot's cost history.
type Record struct {
	entity.BaseEntity
	Key

	OnHand   types.Quantity `db:"on_hand" json:"onHand"`
	Reserved types.Quantity `db:"reserved" json:"reserved"`
	Blocked  types.Quantity `db:"blocked" json:"blocked"`

	// BlockReason is attached while any quantity is blocked
	BlockReason string `db:"block_reason" json:"blockReason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewRecord creates an empty stock record for the given key.
func NewRecord(key Key) *Record {
	now := time.Now().UTC()
	return &Record{
		BaseEntity: entity.NewBaseEntity(),
		Key:        key,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Available returns onHand - reserved - blocked.
func (r *Record) Available() types.Quantity {
	return r.OnHand - r.Reserved - r.Blocked
}

// Validate implements entity.Validatable.
func (r *Record) Validate(ctx context.Context) error {
	if id.IsNil(r.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if id.IsNil(r.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if id.IsNil(r.ShelfID) {
		return apperror.NewValidation("shelf is required").
			WithDetail("field", "shelfId")
	}
	return r.checkInvariant()
}

// checkInvariant verifies 0 <= reserved + blocked <= onHand.
func (r *Record) checkInvariant() error {
	if r.OnHand.IsNegative() || r.Reserved.IsNegative() || r.Blocked.IsNegative() {
		return apperror.NewValidation("quantities must be non-negative").
			WithDetail("stock_record_id", r.ID.String())
	}
	if r.Reserved+r.Blocked > r.OnHand {
		return apperror.NewValidation("reserved + blocked must not exceed on-hand").
			WithDetail("stock_record_id", r.ID.String()).
			WithDetail("on_hand", r.OnHand.String()).
			WithDetail("reserved", r.Reserved.String()).
			WithDetail("blocked", r.Blocked.String())
	}
	return nil
}

// --- Primitive state transitions ---
// These are pure in-memory mutations. Persistence and ledger emission are the
// caller's responsibility, always within the same transaction as the ledger
// write.

// Increase adds quantity to on-hand.
func (r *Record) Increase(qty types.Quantity) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	r.OnHand += qty
	r.touch()
	return nil
}

// Decrease removes quantity from on-hand. The removed quantity must not be
// backed by a reservation or block: decreasing below reserved+blocked would
// break the invariant.
func (r *Record) Decrease(qty types.Quantity) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	if qty > r.OnHand {
		return apperror.NewInsufficientOnHand(r.ID.String(), qty.String(), r.OnHand.String())
	}
	if r.OnHand-qty < r.Reserved+r.Blocked {
		return apperror.NewInsufficientOnHand(r.ID.String(), qty.String(), r.OnHand.String()).
			WithDetail("reserved", r.Reserved.String()).
			WithDetail("blocked", r.Blocked.String())
	}
	r.OnHand -= qty
	r.touch()
	return nil
}

// Reserve moves quantity into the reserved counter.
func (r *Record) Reserve(qty types.Quantity) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	if r.Reserved+r.Blocked+qty > r.OnHand {
		return apperror.NewInsufficientStock(qty.String(), r.Available().String()).
			WithDetail("stock_record_id", r.ID.String())
	}
	r.Reserved += qty
	r.touch()
	return nil
}

// Release moves quantity out of the reserved counter.
func (r *Record) Release(qty types.Quantity) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	if qty > r.Reserved {
		return apperror.NewValidation("release exceeds reserved quantity").
			WithDetail("stock_record_id", r.ID.String()).
			WithDetail("requested", qty.String()).
			WithDetail("reserved", r.Reserved.String())
	}
	r.Reserved -= qty
	r.touch()
	return nil
}

// Block moves quantity into the blocked counter with a reason.
func (r *Record) Block(qty types.Quantity, reason string) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	if r.Reserved+r.Blocked+qty > r.OnHand {
		return apperror.NewInsufficientStock(qty.String(), r.Available().String()).
			WithDetail("stock_record_id", r.ID.String())
	}
	r.Blocked += qty
	r.BlockReason = reason
	r.touch()
	return nil
}

// Unblock moves quantity out of the blocked counter.
// The reason is cleared once nothing remains blocked.
func (r *Record) Unblock(qty types.Quantity) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	if qty > r.Blocked {
		return apperror.NewValidation("unblock exceeds blocked quantity").
			WithDetail("stock_record_id", r.ID.String()).
			WithDetail("requested", qty.String()).
			WithDetail("blocked", r.Blocked.String())
	}
	r.Blocked -= qty
	if r.Blocked.IsZero() {
		r.BlockReason = ""
	}
	r.touch()
	return nil
}

func (r *Record) touch() {
	r.UpdatedAt = time.Now().UTC()
}

func requirePositive(qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty.String())
	}
	return nil
}
