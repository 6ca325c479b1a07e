package game

import "sync"

// Inventory tracks item quantities for the player. A zero quantity and an
// absent item are the same thing: zero entries are dropped on export so saves
// never accumulate dead keys.
type Inventory struct {
	onChange func()

	mu    sync.RWMutex
	items map[string]int
}

type InventoryOpt func(*Inventory)

// WithInventoryChanged registers a callback fired after every successful add
// or remove, used to schedule a save.
func WithInventoryChanged(fn func()) InventoryOpt {
	return func(inv *Inventory) {
		inv.onChange = fn
	}
}

func NewInventory(opts ...InventoryOpt) *Inventory {
	inv := &Inventory{
		items: map[string]int{},
	}

	for _, opt := range opts {
		opt(inv)
	}

	return inv
}

// AddItem increases an item's quantity. Non-positive quantities are ignored.
func (inv *Inventory) AddItem(itemID string, quantity int) {
	if quantity <= 0 {
		return
	}

	inv.mu.Lock()
	inv.items[itemID] += quantity
	inv.mu.Unlock()

	inv.changed()
}

// RemoveItem decreases an item's quantity, deleting the entry when it reaches
// zero. Returns false and changes nothing when the inventory holds less than
// the requested quantity.
func (inv *Inventory) RemoveItem(itemID string, quantity int) bool {
	if quantity <= 0 {
		return false
	}

	inv.mu.Lock()
	have := inv.items[itemID]
	if have < quantity {
		inv.mu.Unlock()
		return false
	}

	if have == quantity {
		delete(inv.items, itemID)
	} else {
		inv.items[itemID] = have - quantity
	}
	inv.mu.Unlock()

	inv.changed()
	return true
}

// GetItemQuantity returns the held quantity of an item, zero when absent.
func (inv *Inventory) GetItemQuantity(itemID string) int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.items[itemID]
}

// Data exports the inventory for saving. Zero-quantity entries are pruned.
func (inv *Inventory) Data() map[string]int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make(map[string]int, len(inv.items))
	for id, qty := range inv.items {
		if qty > 0 {
			out[id] = qty
		}
	}
	return out
}

// LoadData replaces the inventory with persisted state. The change callback
// does not fire: loading is not a mutation worth saving.
func (inv *Inventory) LoadData(items map[string]int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.items = make(map[string]int, len(items))
	for id, qty := range items {
		if qty > 0 {
			inv.items[id] = qty
		}
	}
}

func (inv *Inventory) changed() {
	if inv.onChange != nil {
		inv.onChange()
	}
}
